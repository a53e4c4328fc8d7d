package services

import (
	"strings"
	"testing"
)

func TestDefaultDetectorCatalog(t *testing.T) {
	rules := DefaultDetector().Rules()
	if len(rules) != 6 {
		t.Fatalf("default catalog has %d rules, want 6", len(rules))
	}
	for _, rule := range rules {
		if rule.Severity == "" {
			t.Fatalf("rule %q has empty severity after construction", rule.Name)
		}
	}
}

func TestDetectWarningAtThreshold(t *testing.T) {
	matches := DefaultDetector().Detect([]string{
		"media_rhetoric_escalation",
		"community_warnings_ignored",
	}, "")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	match := matches[0]
	if match.Rule != "Familiar Failure Mode: Reform → Backlash" {
		t.Fatalf("matched rule %q", match.Rule)
	}
	if match.Kind != PatternWarning || match.Severity != SeverityMedium {
		t.Fatalf("match = %+v", match)
	}
	want := []string{"media_rhetoric_escalation", "community_warnings_ignored"}
	if len(match.SignalsDetected) != 2 || match.SignalsDetected[0] != want[0] || match.SignalsDetected[1] != want[1] {
		t.Fatalf("signals detected = %v, want %v", match.SignalsDetected, want)
	}
}

func TestDetectBelowThresholdIsQuiet(t *testing.T) {
	matches := DefaultDetector().Detect([]string{"media_rhetoric_escalation"}, "")
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestDetectSingleSignalRules(t *testing.T) {
	matches := DefaultDetector().Detect([]string{"cultural_protocol_adherence_slipping"}, "")
	if len(matches) != 1 || matches[0].Rule != "Slow Drift: Indigenous Authority Erosion" {
		t.Fatalf("matches = %+v", matches)
	}

	matches = DefaultDetector().Detect([]string{"knowledge_extraction_attempts_increasing"}, "")
	if len(matches) != 1 {
		t.Fatalf("matches = %+v", matches)
	}
	if matches[0].Severity != SeverityCritical {
		t.Fatalf("severity = %q, want CRITICAL", matches[0].Severity)
	}
	if !strings.Contains(matches[0].Recommendation, "Protect community sovereignty") {
		t.Fatalf("recommendation = %q", matches[0].Recommendation)
	}
}

func TestDetectOpportunityKind(t *testing.T) {
	observed := []string{"cultural_continuity_strong", "story_collection_rate_increasing"}

	matches := DefaultDetector().Detect(observed, "justicehub")
	if len(matches) != 1 || matches[0].Kind != PatternOpportunity {
		t.Fatalf("matches = %+v", matches)
	}

	if got := DefaultDetector().Detect(observed, "the-harvest"); len(got) != 0 {
		t.Fatalf("the-harvest should not see the justice+storytelling rule: %+v", got)
	}
}

func TestDetectProjectFilter(t *testing.T) {
	observed := []string{
		"revenue_growth_positive",
		"indigenous_governance_presence_declining",
		"community_consent_patterns_weakening",
	}

	// Unfiltered, the governance signals also trip the erosion rule.
	all := DefaultDetector().Detect(observed, "")
	if len(all) != 2 {
		t.Fatalf("expected erosion + funding mismatch, got %+v", all)
	}
	if all[0].Rule != "Slow Drift: Indigenous Authority Erosion" {
		t.Fatalf("declared order broken: first match %q", all[0].Rule)
	}

	goods := DefaultDetector().Detect(observed, "goods")
	if len(goods) != 1 || goods[0].Rule != "Rhetoric vs Reality: Funding ≠ Sovereignty" {
		t.Fatalf("goods matches = %+v", goods)
	}
}

func TestNewDetectorRejectsBadRules(t *testing.T) {
	base := PatternRule{
		Name:      "ok",
		Signals:   []string{"a", "b"},
		WarningAt: 1,
		Projects:  []string{"justicehub"},
	}

	tests := []struct {
		name    string
		mutate  func(*PatternRule)
		wantErr string
	}{
		{"missing name", func(r *PatternRule) { r.Name = "" }, "has no name"},
		{"no signals", func(r *PatternRule) { r.Signals = nil }, "watches no signals"},
		{"no projects", func(r *PatternRule) { r.Projects = nil }, "names no projects"},
		{"both thresholds", func(r *PatternRule) { r.OpportunityAt = 1 }, "sets both"},
		{"neither threshold", func(r *PatternRule) { r.WarningAt = 0 }, "sets neither"},
		{"threshold too high", func(r *PatternRule) { r.WarningAt = 3 }, "exceeds"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := base
			rule.Signals = append([]string(nil), base.Signals...)
			rule.Projects = append([]string(nil), base.Projects...)
			tc.mutate(&rule)
			_, err := NewDetector([]PatternRule{rule})
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}

	if _, err := NewDetector(nil); err == nil {
		t.Fatal("expected error for empty rule set")
	}
}
