package services

import (
	"errors"
	"fmt"
	"sort"
)

// Value proxies assign a conservative AUD figure to one unit of each
// outcome kind, following published Australian social-value benchmarks.
// The table is static: two runs over the same outcomes report the same
// totals.
var defaultValueProxies = map[string]float64{
	"employment_gained":         25000,
	"employment_retained":       15000,
	"skills_training":           5000,
	"avoided_incarceration":     150000,
	"family_reunification":      20000,
	"reduced_recidivism":        100000,
	"mental_health_improvement": 10000,
	"wellbeing_increase":        5000,
	"burnout_prevention":        15000,
	"cultural_preservation":     8000,
	"community_connection":      3000,
	"healing_achieved":          12000,
	"housing_secured":           30000,
	"housing_stability":         15000,
	"education_completed":       10000,
	"certification_achieved":    8000,
	"policy_influenced":         50000,
	"program_replicated":        25000,
}

type UnknownOutcomeError struct {
	Kind string
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("unknown outcome kind %q", e.Kind)
}

func IsUnknownOutcome(err error) bool {
	_, ok := errors.AsType[*UnknownOutcomeError](err)
	return ok
}

// OutcomeValue is one line of a report: how many units of an outcome
// were observed and what they are worth.
type OutcomeValue struct {
	Kind      string  `json:"kind"`
	Count     int     `json:"count"`
	UnitValue float64 `json:"unit_value"`
	Value     float64 `json:"value"`
}

type Report struct {
	Investment     float64        `json:"investment"`
	TotalValue     float64        `json:"total_value"`
	Ratio          float64        `json:"ratio"`
	Interpretation string         `json:"interpretation"`
	Breakdown      []OutcomeValue `json:"breakdown"`
}

// Calculator values outcome counts against a proxy table and reports a
// social-return-on-investment ratio.
type Calculator struct {
	proxies map[string]float64
}

func New(proxies map[string]float64) (*Calculator, error) {
	if len(proxies) == 0 {
		return nil, errors.New("impact: empty value-proxy table")
	}
	own := make(map[string]float64, len(proxies))
	for kind, value := range proxies {
		if kind == "" {
			return nil, errors.New("impact: empty outcome kind in proxy table")
		}
		if value <= 0 {
			return nil, fmt.Errorf("impact: proxy value for %q must be positive", kind)
		}
		own[kind] = value
	}
	return &Calculator{proxies: own}, nil
}

func Default() *Calculator {
	c, err := New(defaultValueProxies)
	if err != nil {
		panic(err)
	}
	return c
}

// OutcomeKinds lists the kinds the calculator prices, sorted.
func (c *Calculator) OutcomeKinds() []string {
	kinds := make([]string, 0, len(c.proxies))
	for kind := range c.proxies {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Calculate values the observed outcomes and derives the ratio against
// the invested amount. A kind missing from the proxy table is an error
// rather than a silent zero: a typo'd outcome that quietly values at
// nothing corrupts every report downstream.
func (c *Calculator) Calculate(investment float64, outcomes map[string]int) (Report, error) {
	kinds := make([]string, 0, len(outcomes))
	for kind := range outcomes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	report := Report{
		Investment: investment,
		Breakdown:  make([]OutcomeValue, 0, len(kinds)),
	}
	for _, kind := range kinds {
		count := outcomes[kind]
		if count < 0 {
			return Report{}, fmt.Errorf("impact: negative count %d for outcome %q", count, kind)
		}
		unit, ok := c.proxies[kind]
		if !ok {
			return Report{}, &UnknownOutcomeError{Kind: kind}
		}
		value := float64(count) * unit
		report.Breakdown = append(report.Breakdown, OutcomeValue{
			Kind:      kind,
			Count:     count,
			UnitValue: unit,
			Value:     value,
		})
		report.TotalValue += value
	}
	if investment > 0 {
		report.Ratio = report.TotalValue / investment
	}
	report.Interpretation = interpretRatio(report.Ratio)
	return report, nil
}

func interpretRatio(ratio float64) string {
	switch {
	case ratio >= 5:
		return "Excellent - High social return"
	case ratio >= 3:
		return "Good - Above average impact"
	case ratio >= 1:
		return "Positive - Creating value"
	default:
		return "Below break-even - Review needed"
	}
}
