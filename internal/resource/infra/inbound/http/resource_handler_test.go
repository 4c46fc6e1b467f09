package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	listingApp "github.com/davicafu/backoffice/internal/listing/application"
	listingResource "github.com/davicafu/backoffice/internal/listing/infra/outbound/resource"
	"github.com/davicafu/backoffice/internal/resource/application"
	"github.com/davicafu/backoffice/internal/resource/infra/outbound/db/sqlstore"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, d, err := sqlstore.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.InitSchema(context.Background(), db, d))

	svc := application.NewResourceService(sharedDomain.DefaultRegistry(), sqlstore.NewDocumentRepo(db, d), zap.NewNop())
	r := gin.New()
	RegisterResourceRoutes(r, NewResourceHandler(svc, zap.NewNop()))
	return r
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestResourceHandler_ListPaginates(t *testing.T) {
	r := newRouter(t)
	for i := 1; i <= 35; i++ {
		w := do(r, http.MethodPost, "/api/pagos/", map[string]any{"monto": i, "fecha_pago": fmt.Sprintf("2024-01-%02d", i%28+1)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(r, http.MethodGet, "/api/pagos/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[PageResponse](t, w)
	assert.Equal(t, 35, page.Count)
	assert.Len(t, page.Results, 30)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/pagos/?page=2", *page.Next)
	assert.Nil(t, page.Previous)
	assert.Equal(t, "35", page.Results[0].ID())

	w = do(r, http.MethodGet, "/api/pagos/?page=2&monto__gte=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[PageResponse](t, w)
	assert.Len(t, page.Results, 5)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/pagos/?monto__gte=1", *page.Previous)

	w = do(r, http.MethodGet, "/api/pagos/?page=3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid page."}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/pagos/?monto__gt=30&ordering=monto&page_size=2", nil)
	page = decode[PageResponse](t, w)
	assert.Equal(t, 5, page.Count)
	assert.EqualValues(t, 31, page.Results[0]["monto"])
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page_size=2")
}

func TestResourceHandler_Errors(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/facturas/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/pagos/?monto__gt-1=2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["detail"], "invalid lookup")

	w = do(r, http.MethodGet, "/api/pagos/?obra__isnull=quizas", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/pagos/99/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/pagos/", bytes.NewBufferString("{no json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceHandler_DetailRoutes(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/receptores/", map[string]any{"razon_social": "ACME", "cnpj": "1"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[sharedDomain.Record](t, w)
	id := created.ID()

	w = do(r, http.MethodPatch, "/api/receptores/"+id+"/", map[string]any{"cnpj": "2"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[sharedDomain.Record](t, w)
	assert.Equal(t, "2", updated["cnpj"])
	assert.Equal(t, "ACME", updated["razon_social"])

	w = do(r, http.MethodGet, "/api/receptores/"+id+"/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/api/receptores/"+id+"/", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, "/api/receptores/"+id+"/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.com/api/receptores/", decode[map[string]string](t, w)["receptores"])

	w = do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// El controlador de listados contra el servidor real: el filtro compilado
// llega como lookup anidado y la alta entra al principio de la lista.
func TestResourceHandler_ServesListingController(t *testing.T) {
	r := newRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	seed := []map[string]any{
		{"fecha": "2024-01-05", "monto": 100, "proveedor": map[string]any{"nombre_fantasia_pila": "Gomez Hnos"}},
		{"fecha": "2024-02-10", "monto": 200, "proveedor": map[string]any{"nombre_fantasia_pila": "Perez SA"}},
		{"fecha": "2024-03-15", "monto": 300, "proveedor": map[string]any{"nombre_fantasia_pila": "gomez y asoc"}},
	}
	for _, s := range seed {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/presupuestos/", s).Code)
	}

	client := listingResource.NewClient(listingResource.Config{BaseURL: srv.URL}, zap.NewNop())
	ctrl, err := listingApp.NewController(sharedDomain.DefaultRegistry(), "presupuestos", client,
		listingApp.NewLRUStore(0, 0), zap.NewNop(), listingApp.Options{
			Debounce: -1,
			Filters:  []sharedDomain.Filter{sharedDomain.NewFilter("proveedor", sharedDomain.OpContains, "gomez")},
		})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	ctx := context.Background()
	require.NoError(t, ctrl.Load(ctx))
	items := ctrl.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "2024-03-15", items[0]["fecha"])
	assert.False(t, ctrl.HasMore())

	mutations := listingApp.NewMutationService(client, zap.NewNop())
	rec, err := mutations.Create(ctx, ctrl, sharedDomain.Record{"monto": 50, "proveedor": map[string]any{"nombre_fantasia_pila": "Gomez"}})
	require.NoError(t, err)
	assert.Equal(t, "Cargado", rec["estado"])
	assert.Equal(t, rec.ID(), ctrl.Items()[0].ID())

	require.NoError(t, mutations.Delete(ctx, ctrl, rec.ID()))
	assert.Len(t, ctrl.Items(), 2)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/presupuestos/"+rec.ID()+"/", nil).Code)
}
