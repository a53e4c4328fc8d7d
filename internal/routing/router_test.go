package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()

	a := Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{
				{Path: "/healthz", Methods: []string{"GET"}, RouteClass: "ops"},
				{Path: "/api/v1/contacts/search", Methods: []string{"POST"}, RouteClass: "public_api"},
				{Path: "/api/v1/contacts/{id}", Methods: []string{"GET", "PATCH"}, RouteClass: "public_api"},
			}},
		},
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRouter_PanicBecomes500JSON(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)
	r.Handle(RouteClassPublicAPI, http.MethodGet, "/api/v1/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
	var body ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Fatalf("code=%q", body.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	var body ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != "ROUTE_NOT_FOUND" {
		t.Fatalf("code=%q", body.Code)
	}
	if body.Meta.Path != "/api/v1/nope" || body.Meta.Method != http.MethodGet {
		t.Fatalf("meta=%+v", body.Meta)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)
	r.Handle(RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
	var body ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("code=%q", body.Code)
	}
}

func TestRouter_PathParams(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)
	var gotID string
	r.Handle(RouteClassPublicAPI, http.MethodGet, "/api/v1/contacts/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotID = PathParam(req, "id")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts/contact_003", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if gotID != "contact_003" {
		t.Fatalf("id=%q", gotID)
	}

	patch := httptest.NewRequest(http.MethodPatch, "/api/v1/contacts/contact_003", nil)
	patchRec := httptest.NewRecorder()
	r.ServeHTTP(patchRec, patch)
	if patchRec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", patchRec.Code)
	}
}

func TestRouter_PathParamMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	if got := PathParam(req, "id"); got != "" {
		t.Fatalf("got=%q", got)
	}
}

func TestRouter_ClassGatePanicsOnDrift(t *testing.T) {
	t.Parallel()

	r := NewRouter(testClassifier(t), nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r.Handle(RouteClassOps, http.MethodGet, "/api/v1/contacts/search", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
}
