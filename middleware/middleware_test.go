package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/middleware"
)

func TestHTTPBindsHeaderTenant(t *testing.T) {
	var seen string
	h := middleware.HTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tenantguard.TenantFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), nil)

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	req.Header.Set(middleware.TenantHeader, "  t1 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen != "t1" {
		t.Fatalf("expected tenant t1, got %q", seen)
	}
}

func TestHTTPRejectsMissingTenant(t *testing.T) {
	called := false
	h := middleware.HTTP(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cases", nil))

	if called {
		t.Fatal("handler must not run without a tenant")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tenant id is required") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestHTTPCustomResolver(t *testing.T) {
	var seen string
	resolve := func(r *http.Request) string { return r.URL.Query().Get("tenant") }
	h := middleware.HTTP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = tenantguard.TenantFromContext(r.Context())
	}), resolve)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cases?tenant=t9", nil))
	if seen != "t9" {
		t.Fatalf("expected t9, got %q", seen)
	}
}

func TestHTTPKeepsUserID(t *testing.T) {
	var rc tenantguard.RequestContext
	h := middleware.HTTP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		rc, _ = tenantguard.RequestContextFrom(r.Context())
	}), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(tenantguard.WithRequestContext(req.Context(), tenantguard.RequestContext{UserID: "u1"}))
	req.Header.Set(middleware.TenantHeader, "t1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if rc.TenantID != "t1" || rc.UserID != "u1" {
		t.Fatalf("unexpected request context %+v", rc)
	}
}
