package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse es el cuerpo de error de la API: {"detail": "..."}.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SendSuccess envía data tal cual, sin envoltorio.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendNoContent responde 204 sin cuerpo.
func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, detail string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Detail: detail})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, detail string) {
	SendError(c, http.StatusBadRequest, detail)
}

func SendNotFound(c *gin.Context, detail string) {
	SendError(c, http.StatusNotFound, detail)
}

func SendInternalServerError(c *gin.Context, detail string) {
	SendError(c, http.StatusInternalServerError, detail)
}
