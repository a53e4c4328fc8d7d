package services

import (
	"errors"
	"fmt"
)

const (
	PatternWarning     = "warning"
	PatternOpportunity = "opportunity"

	SeverityMedium   = "MEDIUM"
	SeverityCritical = "CRITICAL"
)

// PatternRule watches a set of named signals and fires when enough of
// them are observed at once. Exactly one of WarningAt or OpportunityAt
// must be set; it is the minimum number of watched signals that have
// to be present.
type PatternRule struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Signals        []string `yaml:"signals"`
	WarningAt      int      `yaml:"warning_at"`
	OpportunityAt  int      `yaml:"opportunity_at"`
	Projects       []string `yaml:"projects"`
	Severity       string   `yaml:"severity"`
	Recommendation string   `yaml:"recommendation"`
}

type PatternMatch struct {
	Rule            string   `json:"rule"`
	Description     string   `json:"description"`
	Kind            string   `json:"kind"`
	SignalsDetected []string `json:"signals_detected"`
	Severity        string   `json:"severity"`
	Projects        []string `json:"projects"`
	Recommendation  string   `json:"recommendation"`
}

type Detector struct {
	rules []PatternRule
}

func NewDetector(rules []PatternRule) (*Detector, error) {
	if len(rules) == 0 {
		return nil, errors.New("pattern rules: empty rule set")
	}
	own := make([]PatternRule, len(rules))
	copy(own, rules)
	for i, rule := range own {
		if rule.Name == "" {
			return nil, fmt.Errorf("pattern rules: rule %d has no name", i)
		}
		if len(rule.Signals) == 0 {
			return nil, fmt.Errorf("pattern rules: rule %q watches no signals", rule.Name)
		}
		if len(rule.Projects) == 0 {
			return nil, fmt.Errorf("pattern rules: rule %q names no projects", rule.Name)
		}
		switch {
		case rule.WarningAt > 0 && rule.OpportunityAt > 0:
			return nil, fmt.Errorf("pattern rules: rule %q sets both warning_at and opportunity_at", rule.Name)
		case rule.WarningAt <= 0 && rule.OpportunityAt <= 0:
			return nil, fmt.Errorf("pattern rules: rule %q sets neither warning_at nor opportunity_at", rule.Name)
		}
		threshold := rule.WarningAt
		if threshold == 0 {
			threshold = rule.OpportunityAt
		}
		if threshold > len(rule.Signals) {
			return nil, fmt.Errorf("pattern rules: rule %q threshold %d exceeds its %d signals", rule.Name, threshold, len(rule.Signals))
		}
		if rule.Severity == "" {
			own[i].Severity = SeverityMedium
		}
	}
	return &Detector{rules: own}, nil
}

func DefaultDetector() *Detector {
	d, err := NewDetector(defaultPatternRules())
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Detector) Rules() []PatternRule {
	out := make([]PatternRule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect evaluates every rule, in declared order, against the observed
// signal names. An empty project matches all rules; otherwise only
// rules naming that project are considered. The triggering signals are
// reported in the rule's own order.
func (d *Detector) Detect(observed []string, project string) []PatternMatch {
	seen := make(map[string]struct{}, len(observed))
	for _, name := range observed {
		seen[name] = struct{}{}
	}

	var matches []PatternMatch
	for _, rule := range d.rules {
		if project != "" && !containsString(rule.Projects, project) {
			continue
		}
		var hit []string
		for _, signal := range rule.Signals {
			if _, ok := seen[signal]; ok {
				hit = append(hit, signal)
			}
		}
		kind, threshold := PatternWarning, rule.WarningAt
		if rule.OpportunityAt > 0 {
			kind, threshold = PatternOpportunity, rule.OpportunityAt
		}
		if len(hit) < threshold {
			continue
		}
		matches = append(matches, PatternMatch{
			Rule:            rule.Name,
			Description:     rule.Description,
			Kind:            kind,
			SignalsDetected: hit,
			Severity:        rule.Severity,
			Projects:        rule.Projects,
			Recommendation:  rule.Recommendation,
		})
	}
	return matches
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

// The stock catalog covers the failure modes and synergies the ACT
// portfolio has already lived through once: reform rhetoric turning
// punitive, Indigenous authority eroding by degrees, volunteer burnout
// compounding quietly, and outside actors probing for community
// knowledge.
func defaultPatternRules() []PatternRule {
	return []PatternRule{
		{
			Name:        "Familiar Failure Mode: Reform → Backlash",
			Description: "Progressive reform language appears, then punitive backlash follows within 18-24 months",
			Signals: []string{
				"media_rhetoric_escalation",
				"policy_language_shift_toward_punitive",
				"community_warnings_ignored",
			},
			WarningAt:      2,
			Projects:       []string{"justicehub"},
			Recommendation: "Warning: Familiar failure mode detected. Review community warnings and consider early intervention.",
		},
		{
			Name:        "Slow Drift: Indigenous Authority Erosion",
			Description: "Gradual shift from Indigenous-led to Indigenous-consulted to Indigenous-excluded",
			Signals: []string{
				"indigenous_governance_presence_declining",
				"cultural_protocol_adherence_slipping",
				"community_consent_patterns_weakening",
			},
			WarningAt:      1,
			Projects:       []string{"empathy-ledger"},
			Recommendation: "Attention: Gradual erosion detected. Strengthen governance before crisis.",
		},
		{
			Name:        "Cross-Domain Opportunity: Justice + Storytelling",
			Description: "Justice-involved youth benefit from storytelling/cultural connection",
			Signals: []string{
				"cultural_continuity_strong",
				"story_collection_rate_increasing",
				"youth_participation_in_decisions_growing",
			},
			OpportunityAt:  2,
			Projects:       []string{"justicehub", "empathy-ledger"},
			Recommendation: "Opportunity: Positive synergy detected. Consider cross-project collaboration.",
		},
		{
			Name:        "Early Inflection: Volunteer Burnout Cascade",
			Description: "Volunteer burnout leads to program deterioration before crisis visible",
			Signals: []string{
				"volunteer_retention_declining",
				"staff_burnout_indicators_rising",
				"administrative_burden_increasing",
			},
			WarningAt:      2,
			Projects:       []string{"the-harvest"},
			Recommendation: "Alert: Early warning sign. Act now before visible crisis.",
		},
		{
			Name:        "Rhetoric vs Reality: Funding ≠ Sovereignty",
			Description: "Funding increases but community control decreases",
			Signals: []string{
				"revenue_growth_positive",
				"indigenous_governance_presence_declining",
				"community_consent_patterns_weakening",
			},
			WarningAt:      3,
			Projects:       []string{"goods"},
			Recommendation: "Mismatch: Funding and control are misaligned. Revisit governance.",
		},
		{
			Name:        "Knowledge Extraction Attempt",
			Description: "External actors trying to extract community knowledge without proper consent",
			Signals: []string{
				"knowledge_extraction_attempts_increasing",
				"consent_revocation_rate_rising",
				"cultural_safety_incidents_detected",
			},
			WarningAt:      1,
			Projects:       []string{"empathy-ledger"},
			Severity:       SeverityCritical,
			Recommendation: "CRITICAL: Knowledge extraction attempt detected. Protect community sovereignty immediately.",
		},
	}
}
