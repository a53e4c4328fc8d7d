package services

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/act-community/steward/modules/contacts/domain/types"
)

type ReviewConfig struct {
	Version        int                `yaml:"version"`
	ElderTag       string             `yaml:"elder_tag"`
	ElderKeyword   string             `yaml:"elder_keyword"`
	ReviewField    string             `yaml:"review_field"`
	CulturalPrefix string             `yaml:"cultural_prefix"`
	CriticalFields []string           `yaml:"critical_fields"`
	CustomRules    []CustomRuleConfig `yaml:"custom_rules"`
}

type CustomRuleConfig struct {
	Name              string   `yaml:"name"`
	Expr              string   `yaml:"expr"`
	Reason            string   `yaml:"reason"`
	RecommendedAction string   `yaml:"recommended_action"`
	BlockedActions    []string `yaml:"blocked_actions"`
}

func ParseReviewConfigYAML(b []byte) (ReviewConfig, error) {
	var cfg ReviewConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return ReviewConfig{}, err
	}
	if cfg.Version != 1 {
		return ReviewConfig{}, errors.New("review config: unsupported version")
	}
	return cfg, nil
}

// LoadReviewConfig reads a review-rules file; an empty path yields the
// stock rule set.
func LoadReviewConfig(path string) (ReviewConfig, error) {
	if path == "" {
		return DefaultReviewConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ReviewConfig{}, err
	}
	return ParseReviewConfigYAML(b)
}

func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		Version:        1,
		ElderTag:       "role:elder",
		ElderKeyword:   "elder",
		ReviewField:    "elder_review_required",
		CulturalPrefix: "cultural:",
		CriticalFields: []string{"sacred_knowledge"},
	}
}

func parseActionKinds(raw []string) ([]types.ActionKind, error) {
	known := make(map[types.ActionKind]struct{}, len(types.AllActionKinds()))
	for _, kind := range types.AllActionKinds() {
		known[kind] = struct{}{}
	}
	out := make([]types.ActionKind, 0, len(raw))
	for _, item := range raw {
		kind := types.ActionKind(item)
		if _, ok := known[kind]; !ok {
			return nil, fmt.Errorf("unknown action kind %q", item)
		}
		out = append(out, kind)
	}
	return out, nil
}
