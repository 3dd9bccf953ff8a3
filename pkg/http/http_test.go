package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/api/fail", func(c echo.Context) error { return BadRequestError("nope") })
	e.GET("/api/panic", func(c echo.Context) error { panic("boom") })
	e.POST("/api/items", func(c echo.Context) error {
		var req struct {
			Name string `json:"name" validate:"required,max=3"`
		}
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return CreatedResponse(c, req.Name)
	})
}

func newTestServer(opts ...ServerOption) *Server {
	reg := prometheus.NewRegistry()
	base := []ServerOption{WithMetrics("/metrics", reg, reg)}
	return NewServer([]Handler{pingHandler{}}, append(base, opts...)...)
}

func do(s *Server, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	var env APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestServerEnvelope(t *testing.T) {
	s := newTestServer()

	rec, env := do(s, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "OK", env.Message)
	assert.Equal(t, "pong", env.Data)

	rec, env = do(s, http.MethodGet, "/api/fail", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 400, env.Status)
	assert.Contains(t, rec.Body.String(), "ERR_BAD_REQUEST")

	rec, _ = do(s, http.MethodGet, "/api/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(s, http.MethodGet, "/api/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerValidation(t *testing.T) {
	s := newTestServer()

	rec, _ := do(s, http.MethodPost, "/api/items", `{"name":"toolong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"name"`)
	assert.Contains(t, rec.Body.String(), "ERR_MAX")

	rec, _ = do(s, http.MethodPost, "/api/items", `{"name":"abc"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServerHealthAndMetrics(t *testing.T) {
	healthy := true
	s := newTestServer(WithHealthCheck(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("store down")
	}))

	rec, _ := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec, _ = do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	do(s, http.MethodGet, "/api/ping", "")
	rec, _ = do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/ping",status="200"}`)
}

func TestServerCORS(t *testing.T) {
	s := newTestServer(WithAllowOrigins([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestClientGetData(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Echo())
	defer ts.Close()

	c := NewClient()
	var out string
	require.NoError(t, c.GetData(context.Background(), ts.URL+"/api/ping", nil, &out))
	assert.Equal(t, "pong", out)

	err := c.GetData(context.Background(), ts.URL+"/api/fail", nil, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, err.Error(), "nope")
}
