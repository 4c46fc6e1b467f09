package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/resource/application"
	"github.com/davicafu/backoffice/internal/resource/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	"github.com/davicafu/backoffice/pkg/utils"
)

// ResourceHandler encapsula los endpoints HTTP de /api/:resource.
type ResourceHandler struct {
	service *application.ResourceService
	log     *zap.Logger
}

func NewResourceHandler(service *application.ResourceService, log *zap.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, log: log}
}

// PageResponse es el sobre paginado que consume el listado.
type PageResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []domain.Record `json:"results"`
}

// ---------------- Handlers ----------------

// List endpoint GET /api/:resource/
func (h *ResourceHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context(), c.Param("resource"), c.Request.URL.Query())
	if err != nil {
		h.sendError(c, err)
		return
	}

	out := PageResponse{Count: res.Count, Results: res.Results}
	if out.Results == nil {
		out.Results = []domain.Record{}
	}
	if res.HasNext() {
		next := pageURL(c, res.Page+1)
		out.Next = &next
	}
	if res.HasPrevious() {
		prev := pageURL(c, res.Page-1)
		out.Previous = &prev
	}
	utils.SendSuccess(c, http.StatusOK, out)
}

// Get endpoint GET /api/:resource/:id/
func (h *ResourceHandler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, rec)
}

// Create endpoint POST /api/:resource/
func (h *ResourceHandler) Create(c *gin.Context) {
	var body domain.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendBadRequest(c, "JSON parse error - "+err.Error())
		return
	}
	rec, err := h.service.Create(c.Request.Context(), c.Param("resource"), body)
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, rec)
}

// Update endpoint PATCH /api/:resource/:id/
func (h *ResourceHandler) Update(c *gin.Context) {
	var patch domain.Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendBadRequest(c, "JSON parse error - "+err.Error())
		return
	}
	rec, err := h.service.Update(c.Request.Context(), c.Param("resource"), c.Param("id"), patch)
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, rec)
}

// Delete endpoint DELETE /api/:resource/:id/
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("resource"), c.Param("id")); err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendNoContent(c)
}

// Resources endpoint GET /api/
func (h *ResourceHandler) Resources(c *gin.Context) {
	base := requestBase(c)
	out := make(map[string]string)
	for _, name := range h.service.Resources() {
		out[name] = base + "/api/" + name + "/"
	}
	utils.SendSuccess(c, http.StatusOK, out)
}

// ---------------- Helpers ----------------

func (h *ResourceHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPage):
		utils.SendNotFound(c, "Invalid page.")
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, sharedDomain.ErrUnknownResource):
		utils.SendNotFound(c, "Not found.")
	case errors.Is(err, domain.ErrInvalidLookup), errors.Is(err, domain.ErrInvalidRecord):
		utils.SendBadRequest(c, err.Error())
	default:
		h.log.Error("Unhandled API error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		utils.SendInternalServerError(c, "A server error occurred.")
	}
}

func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host
}

// pageURL arma la URL absoluta del pedido actual con otro page. La página 1
// va sin parámetro.
func pageURL(c *gin.Context, page int) string {
	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del(domain.ParamPage)
	} else {
		q.Set(domain.ParamPage, strconv.Itoa(page))
	}
	u := url.URL{Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return requestBase(c) + u.String()
}
