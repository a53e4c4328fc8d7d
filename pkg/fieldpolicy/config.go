package fieldpolicy

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version  int      `yaml:"version"`
	Blocked  []string `yaml:"blocked"`
	ReadOnly []string `yaml:"read_only"`
}

func ParseConfigYAML(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Version != 1 {
		return Config{}, errors.New("fieldpolicy: unsupported config version")
	}
	return cfg, nil
}

// Load reads a field-tier config file. An empty path yields the stock
// deployment registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfigYAML(b)
	if err != nil {
		return nil, err
	}
	return New(cfg.Blocked, cfg.ReadOnly)
}

// Default returns the stock registry: consent and sacred-knowledge
// fields are never touchable by automation, protocol and identity
// fields are visible but frozen.
func Default() *Registry {
	reg, err := New(
		[]string{"elder_consent", "sacred_knowledge"},
		[]string{"cultural_protocols", "supabase_user_id", "elder_review_required"},
	)
	if err != nil {
		panic(err)
	}
	return reg
}
