package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	srv, _ := setup(t)

	t.Run("home", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/")
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to EvalX API!", rec.Body.String())
	})

	runTests(t, srv, []httpTest{
		{name: "unknown route", method: http.MethodGet, path: "/v1/lol", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
		{name: "trailing slash", method: http.MethodGet, path: "/v1/users/roles/", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	})

	t.Run("metrics", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/metrics")
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `evalx_http_requests_total{code="200",method="GET",path="/"} 1`)
		assert.Contains(t, body, `evalx_http_requests_total{code="401",method="GET",path="/v1/users/roles"} 1`)
		assert.Contains(t, body, "evalx_http_request_duration_seconds")
		assert.Contains(t, body, "go_goroutines")
	})
}
