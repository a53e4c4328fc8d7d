package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// newTestHandler builds a handler on the seeded in-memory store with
// the repo config files resolved through the default path search. Env
// that would redirect it to a database or an external key is pinned
// empty for the duration of the test.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("STEWARD_ALLOWLIST_PATH", "")
	t.Setenv("STEWARD_API_KEY", "")
	t.Setenv("STEWARD_AUDIT_LOG", "")
	t.Setenv("STEWARD_AUTHZ_MODE", "")

	h, err := NewHandlerWithOptions(HandlerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, roles string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if roles != "" {
		req.Header.Set("X-Roles", roles)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
}

func TestHandler_HealthAndReady(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
		if rec.Body.String() != "ok\n" {
			t.Fatalf("%s body=%q", path, rec.Body.String())
		}
	}
}

func TestHandler_UnknownRouteIsJSON(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/nope", nil, "viewer")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"code":"ROUTE_NOT_FOUND"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodDelete, "/api/v1/contacts/search", nil, "viewer")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"METHOD_NOT_ALLOWED"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestMustNewHandler_PanicsOnMissingAllowlist(t *testing.T) {
	t.Setenv("STEWARD_ALLOWLIST_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = MustNewHandler(HandlerOptions{})
}

func TestNewHandler_DefaultPaths(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("STEWARD_ALLOWLIST_PATH", "")
	t.Setenv("STEWARD_API_KEY", "")
	t.Setenv("STEWARD_AUDIT_LOG", "")
	t.Setenv("STEWARD_AUTHZ_MODE", "")

	h, err := NewHandler()
	if err != nil {
		t.Fatal(err)
	}
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_ReloadSwapsEngine(t *testing.T) {
	h := newTestHandler(t)

	before := h.current()
	if before == nil {
		t.Fatal("expected engine")
	}
	if err := h.Reload(); err != nil {
		t.Fatal(err)
	}
	after := h.current()
	if after == nil || after == before {
		t.Fatal("expected a fresh engine after reload")
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/contacts/contact_001", nil, "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_WatchPaths(t *testing.T) {
	h := newTestHandler(t)

	paths := h.WatchPaths()
	if len(paths) != 2 {
		t.Fatalf("paths=%v", paths)
	}
	if !strings.HasSuffix(paths[0], filepath.Join("config", "policy", "fields.yaml")) {
		t.Fatalf("paths[0]=%q", paths[0])
	}
	if !strings.HasSuffix(paths[1], filepath.Join("config", "policy", "review_rules.yaml")) {
		t.Fatalf("paths[1]=%q", paths[1])
	}
}
