package services

// The five-signal portfolio framework weights community authority
// highest and counts harm risk inverted, so a low-risk intervention
// contributes more. Values are signals, not scores: they indicate
// direction, not achievement.
const (
	WeightEvidenceStrength         = 0.25
	WeightCommunityAuthority       = 0.30
	WeightHarmRisk                 = 0.20
	WeightImplementationCapability = 0.15
	WeightOptionValue              = 0.10
)

type PortfolioInput struct {
	EvidenceStrength         float64 `json:"evidence_strength"`
	CommunityAuthority       float64 `json:"community_authority"`
	HarmRisk                 float64 `json:"harm_risk"`
	ImplementationCapability float64 `json:"implementation_capability"`
	OptionValue              float64 `json:"option_value"`
}

type SignalScore struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Weight         float64 `json:"weight"`
	Inverted       bool    `json:"inverted,omitempty"`
	Contribution   float64 `json:"contribution"`
	Interpretation string  `json:"interpretation"`
}

type PortfolioScore struct {
	Signals        []SignalScore `json:"signals"`
	Portfolio      float64       `json:"portfolio"`
	Interpretation string        `json:"interpretation"`
}

// Score computes the weighted portfolio signal. Inputs are clamped to
// [0,1]; harm risk contributes weight × (1 − value) and is interpreted
// on the inverted value, so "Strong" always reads as good news.
func Score(input PortfolioInput) PortfolioScore {
	signals := []SignalScore{
		signalScore("evidence_strength", input.EvidenceStrength, WeightEvidenceStrength, false),
		signalScore("community_authority", input.CommunityAuthority, WeightCommunityAuthority, false),
		signalScore("harm_risk", input.HarmRisk, WeightHarmRisk, true),
		signalScore("implementation_capability", input.ImplementationCapability, WeightImplementationCapability, false),
		signalScore("option_value", input.OptionValue, WeightOptionValue, false),
	}
	score := PortfolioScore{Signals: signals}
	for _, s := range signals {
		score.Portfolio += s.Contribution
	}
	score.Interpretation = interpretPortfolio(score.Portfolio)
	return score
}

func signalScore(name string, value, weight float64, inverted bool) SignalScore {
	value = clamp01(value)
	effective := value
	if inverted {
		effective = 1 - value
	}
	return SignalScore{
		Name:           name,
		Value:          value,
		Weight:         weight,
		Inverted:       inverted,
		Contribution:   weight * effective,
		Interpretation: interpretSignal(effective),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func interpretSignal(value float64) string {
	switch {
	case value >= 0.8:
		return "Strong"
	case value >= 0.6:
		return "Good"
	case value >= 0.4:
		return "Moderate"
	case value >= 0.2:
		return "Weak"
	default:
		return "Very Weak"
	}
}

func interpretPortfolio(signal float64) string {
	switch {
	case signal >= 0.8:
		return "Excellent - Strong across multiple signals"
	case signal >= 0.6:
		return "Good - Solid foundation, some areas for growth"
	case signal >= 0.4:
		return "Moderate - Mixed signals, attention needed"
	default:
		return "Concerning - Multiple weak signals detected"
	}
}
