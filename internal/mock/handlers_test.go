package mock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/openapiroute/router"
	"github.com/mark3labs/openapiroute/spec"
)

const doc = `openapi: 3.0.0
info:
  title: Mock
  version: "1"
paths:
  /things/{id}:
    post:
      x-handler: echo
      parameters:
        - in: path
          name: id
          required: true
          schema:
            type: integer
        - in: query
          name: verbose
          schema:
            type: boolean
      requestBody:
        content:
          application/json:
            schema:
              type: object
      responses:
        "200":
          description: ok
        "400":
          description: bad request
  /health:
    get:
      x-handler: ok
      responses:
        "204":
          description: healthy
  /later:
    get:
      responses:
        "501":
          description: todo
`

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d, err := spec.LoadData(context.Background(), []byte(doc))
	require.NoError(t, err)
	api, err := router.New(context.Background(), d,
		router.WithHandlers(Handlers()),
		router.WithFallbackHandler(NotImplemented),
	)
	require.NoError(t, err)
	return api.Handler()
}

func TestEcho(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/things/42?verbose=true", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"params": {"id": 42},
		"query": {"verbose": true},
		"cookies": {},
		"body": {"a": "b"}
	}`, rec.Body.String())
}

func TestOKAndFallback(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/later", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.JSONEq(t, `{"message":"Not Implemented"}`, rec.Body.String())
}
