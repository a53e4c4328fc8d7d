package routing

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestGateA_AllRoutesVersionedOrOps(t *testing.T) {
	t.Parallel()

	a, err := LoadAllowlist(filepath.Join(repoRoot(t), "config/routing/allowlist.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	for name, ep := range a.Entrypoints {
		for _, r := range ep.Routes {
			if r.RouteClass == string(RouteClassOps) {
				continue
			}
			if !strings.HasPrefix(r.Path, "/api/v1/") {
				t.Fatalf("entrypoint %s: non-versioned api route: %s", name, r.Path)
			}
		}
	}
}

func TestGateB_AllowlistLoadsAndServerEntrypointPresent(t *testing.T) {
	t.Parallel()

	a, err := LoadAllowlist(filepath.Join(repoRoot(t), "config/routing/allowlist.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewClassifier(a, "server"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewClassifier(a, "nope"); err == nil {
		t.Fatal("expected missing entrypoint error")
	}
}

func TestGateC_ErrorsAreAlwaysJSON(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)
	r.Handle(RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/api/v1/unknown", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/anything/else", status: http.StatusNotFound},
		{method: http.MethodPost, path: "/healthz", status: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Fatalf("path=%s status=%d want %d", tt.path, rec.Code, tt.status)
		}
		ct := rec.Header().Get("Content-Type")
		if !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("path=%s content-type=%q", tt.path, ct)
		}
	}
}
