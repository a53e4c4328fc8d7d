package server

import (
	"net/http"
	"strings"
	"testing"

	impactservices "github.com/act-community/steward/modules/impact/services"
)

func TestImpactSROI_Report(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"investment": 100000,
		"outcomes": map[string]int{
			"employment_gained": 2,
			"skills_training":   10,
		},
	}, "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var report impactservices.Report
	decodeJSON(t, rec, &report)

	if report.TotalValue != 100000 {
		t.Fatalf("total=%v", report.TotalValue)
	}
	if report.Ratio != 1 {
		t.Fatalf("ratio=%v", report.Ratio)
	}
	if report.Interpretation != "Positive - Creating value" {
		t.Fatalf("interpretation=%q", report.Interpretation)
	}
	// Breakdown comes back in sorted kind order.
	if len(report.Breakdown) != 2 ||
		report.Breakdown[0].Kind != "employment_gained" ||
		report.Breakdown[1].Kind != "skills_training" {
		t.Fatalf("breakdown=%v", report.Breakdown)
	}
	if report.Breakdown[0].Value != 50000 {
		t.Fatalf("breakdown[0]=%v", report.Breakdown[0])
	}
}

func TestImpactSROI_HighReturn(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"investment": 50000,
		"outcomes":   map[string]int{"avoided_incarceration": 2},
	}, "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	var report impactservices.Report
	decodeJSON(t, rec, &report)
	if report.Ratio != 6 {
		t.Fatalf("ratio=%v", report.Ratio)
	}
	if report.Interpretation != "Excellent - High social return" {
		t.Fatalf("interpretation=%q", report.Interpretation)
	}
}

func TestImpactSROI_ZeroInvestment(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"outcomes": map[string]int{"community_connection": 3},
	}, "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	var report impactservices.Report
	decodeJSON(t, rec, &report)
	if report.Ratio != 0 {
		t.Fatalf("ratio=%v", report.Ratio)
	}
	if report.TotalValue != 9000 {
		t.Fatalf("total=%v", report.TotalValue)
	}
}

func TestImpactSROI_UnknownOutcome(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"investment": 1000,
		"outcomes":   map[string]int{"world_peace": 1},
	}, "viewer")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNKNOWN_OUTCOME"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestImpactSROI_NegativeCount(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"investment": 1000,
		"outcomes":   map[string]int{"skills_training": -1},
	}, "viewer")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"INVALID_REQUEST"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestImpactSROI_OutcomesRequired(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/sroi", map[string]any{
		"investment": 1000,
	}, "viewer")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "outcomes required") {
		t.Fatalf("body=%q", rec.Body.String())
	}
}
