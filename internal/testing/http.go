package testing

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRouter serves requests against a mounted handler tree backed by a test database
type TestRouter struct {
	Handler http.Handler
	Conn    *sql.DB
}

// NewTestRouter wraps a router for handler tests
func NewTestRouter(h http.Handler, conn *sql.DB) *TestRouter {
	return &TestRouter{Handler: h, Conn: conn}
}

// Do sends a request with an optional JSON body and returns the recorded response
func (tr *TestRouter) Do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	tr.Handler.ServeHTTP(rec, req)
	return rec
}
