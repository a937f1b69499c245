package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/openapiroute/internal/cli"
	"github.com/mark3labs/openapiroute/internal/mock"
	"github.com/mark3labs/openapiroute/router"
	"github.com/mark3labs/openapiroute/spec"
	"github.com/mark3labs/openapiroute/validation"
)

const swaggerSpec = `swagger: "2.0"
info:
  title: Greeter
  version: "1.0.0"
basePath: /
paths:
  /greet/{name}:
    get:
      x-handler: echo
      produces: [application/json]
      parameters:
        - in: path
          name: name
          required: true
          type: string
          minLength: 2
        - in: query
          name: times
          type: integer
      responses:
        200:
          description: ok
        400:
          $ref: '#/responses/InputErrorResponse'
  /greetings:
    post:
      x-handler: echo
      consumes: [application/json]
      produces: [application/json]
      parameters:
        - in: body
          name: body
          required: true
          schema:
            type: object
            required: [text]
            properties:
              text:
                type: string
      responses:
        200:
          description: ok
        400:
          $ref: '#/responses/InputErrorResponse'
`

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
	return out.String()
}

func startServer(t *testing.T, doc *spec.Document, opts ...router.Option) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts = append([]router.Option{router.WithHandlers(mock.Handlers())}, opts...)
	api, err := router.New(context.Background(), doc, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(bytes.TrimSpace(data)) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

// Scaffold a document with the CLI, then serve it over real HTTP.
func TestE2E_InitThenServe(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "openapi.yaml")
	runCLI(t, "init", "--out", docPath)

	doc, err := spec.Load(context.Background(), docPath, spec.WithInputErrorComponents())
	require.NoError(t, err)
	srv := startServer(t, doc, router.WithHandler("buildReport", mock.Handlers()[mock.NotImplemented]))

	status, body := do(t, http.MethodGet, srv.URL+"/items?limit=5&q=shoes", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, map[string]any{"limit": float64(5), "q": "shoes"}, body["query"])

	status, body = do(t, http.MethodGet, srv.URL+"/items?limit=0&q=ab", "")
	require.Equal(t, http.StatusBadRequest, status)
	errs, _ := body["errors"].([]any)
	assert.Len(t, errs, 2, "all violations are reported: %v", body)

	status, body = do(t, http.MethodPost, srv.URL+"/items", `{"name":"shoe","owner":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, status)
	first := body["errors"].([]any)[0].(map[string]any)
	assert.Equal(t, "format", first["keyword"])
	assert.Equal(t, "/owner", first["dataPath"])

	status, body = do(t, http.MethodPost, srv.URL+"/items", `{"name":"shoe","owner":"a@example.com","count":"2"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, map[string]any{"name": "shoe", "owner": "a@example.com", "count": float64(2)}, body["body"])

	status, body = do(t, http.MethodGet, srv.URL+"/items/12", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, map[string]any{"id": float64(12)}, body["params"])

	status, _ = do(t, http.MethodDelete, srv.URL+"/items/12", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, srv.URL+"/reports", "")
	assert.Equal(t, http.StatusNotImplemented, status)

	status, body = do(t, http.MethodGet, srv.URL+"/schema.json", "")
	require.Equal(t, http.StatusOK, status)
	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "x-handler")
}

// The InputError schema describes every 400 body the server produces.
func TestE2E_ErrorBodiesMatchInputError(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "openapi.yaml")
	runCLI(t, "init", "--out", docPath)

	doc, err := spec.Load(context.Background(), docPath, spec.WithInputErrorComponents())
	require.NoError(t, err)
	srv := startServer(t, doc, router.WithHandler("buildReport", mock.Handlers()[mock.NotImplemented]))

	v, err := validation.Compile(context.Background(), validation.InputError())
	require.NoError(t, err)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/items?limit=abc", ""},
		{http.MethodGet, "/items?unknown=1", ""},
		{http.MethodPost, "/items", `{"extra":true}`},
		{http.MethodGet, "/items/x", ""},
	} {
		status, body := do(t, tc.method, srv.URL+tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, status, "%s %s", tc.method, tc.path)
		_, err := v.Validate(context.Background(), body)
		assert.NoError(t, err, "%s %s: %v", tc.method, tc.path, body)
	}
}

func TestE2E_SwaggerV2(t *testing.T) {
	doc, err := spec.LoadData(context.Background(), []byte(swaggerSpec), spec.WithInputErrorComponents())
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	srv := startServer(t, doc)

	status, body := do(t, http.MethodGet, srv.URL+"/greet/ann?times=3", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, map[string]any{"name": "ann"}, body["params"])
	assert.Equal(t, map[string]any{"times": float64(3)}, body["query"])

	status, _ = do(t, http.MethodGet, srv.URL+"/greet/a", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, http.MethodPost, srv.URL+"/greetings", `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, map[string]any{"text": "hi"}, body["body"])

	status, _ = do(t, http.MethodPost, srv.URL+"/greetings", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

// The published document is stable across runs.
func TestE2E_SchemaDeterminism(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "openapi.yaml")
	runCLI(t, "init", "--out", docPath)

	digest := func() string {
		out := runCLI(t, "schema", "--spec", docPath)
		sum := sha256.Sum256([]byte(out))
		return hex.EncodeToString(sum[:])
	}
	first := digest()
	for i := 0; i < 3; i++ {
		if got := digest(); got != first {
			t.Fatalf("schema output changed between runs: %s != %s", got, first)
		}
	}

	info, err := os.Stat(docPath)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)
}
