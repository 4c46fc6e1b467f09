package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
)

func TestClient_FetchPage(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documentos/", r.URL.Path)
		assert.Equal(t, "Bearer secreto", r.Header.Get("Authorization"))
		rawQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2,"next":"http://x/api/documentos/?page=3","previous":null,"results":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Token: "secreto"}, zap.NewNop())
	page, err := c.FetchPage(context.Background(), "/api/documentos/", "proveedor__icontains=Gomez Hijos&ordering=-fecha", 2)
	require.NoError(t, err)

	assert.Equal(t, "proveedor__icontains=Gomez+Hijos&ordering=-fecha&page=2", rawQuery)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "2", page.Results[1].ID())
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://x/api/documentos/?page=3", *page.Next)
	assert.Equal(t, 2, *page.Count)
}

func TestClient_RetriesReadsOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"next":null,"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Retries: 2}, zap.NewNop())
	page, err := c.FetchPage(context.Background(), "/api/pagos/", "", 1)
	require.NoError(t, err)
	assert.Nil(t, page.Next)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestClient_InvalidPageIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Invalid page."}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())
	_, err := c.FetchPage(context.Background(), "/api/pagos/", "", 9)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Invalid page.", apiErr.Detail)
}

func TestClient_Writes(t *testing.T) {
	type seen struct {
		method, path string
		body         map[string]any
	}
	var got []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{method: r.Method, path: r.URL.Path}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&s.body)
		}
		got = append(got, s)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":7,"monto":10}`))
		case http.MethodPatch:
			_, _ = w.Write([]byte(`{"id":7,"monto":20}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(Config{BaseURL: srv.URL, Retries: 3}, zap.NewNop())

	created, err := c.Create(ctx, "/api/presupuestos/", domain.Record{"monto": 10})
	require.NoError(t, err)
	assert.Equal(t, "7", created.ID())

	updated, err := c.Update(ctx, "/api/presupuestos/", "7", domain.Record{"monto": 20})
	require.NoError(t, err)
	assert.EqualValues(t, 20, updated["monto"])

	require.NoError(t, c.Delete(ctx, "/api/presupuestos/", "7"))

	require.Len(t, got, 3)
	assert.Equal(t, "/api/presupuestos/", got[0].path)
	assert.EqualValues(t, 10, got[0].body["monto"])
	assert.Equal(t, http.MethodPatch, got[1].method)
	assert.Equal(t, "/api/presupuestos/7/", got[1].path)
	assert.Equal(t, "/api/presupuestos/7/", got[2].path)
}

func TestClient_FailedWriteIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Retries: 3}, zap.NewNop())
	err := c.Delete(context.Background(), "/api/pagos/", "1")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
