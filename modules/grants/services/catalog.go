package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Portal struct {
	Name      string `yaml:"name" json:"name"`
	URL       string `yaml:"url" json:"url"`
	Frequency string `yaml:"frequency" json:"frequency"`
	Coverage  string `yaml:"coverage" json:"coverage"`
}

type CatalogConfig struct {
	Version      int                 `yaml:"version"`
	Projects     map[string][]string `yaml:"projects"`
	CrossProject []string            `yaml:"cross_project"`
	Portals      []Portal            `yaml:"portals"`
}

// Catalog holds the per-project grant keywords, the shared
// cross-project keywords, and the monitored portals.
type Catalog struct {
	projects map[string][]string
	cross    []string
	portals  []Portal
}

func ParseCatalogYAML(b []byte) (CatalogConfig, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return CatalogConfig{}, err
	}
	if cfg.Version != 1 {
		return CatalogConfig{}, errors.New("grant catalog: unsupported version")
	}
	return cfg, nil
}

// LoadCatalog reads a catalog file; an empty path yields the stock
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseCatalogYAML(b)
	if err != nil {
		return nil, err
	}
	return NewCatalog(cfg)
}

func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if len(cfg.Projects) == 0 {
		return nil, errors.New("grant catalog: no projects")
	}
	projects := make(map[string][]string, len(cfg.Projects))
	for name, keywords := range cfg.Projects {
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("grant catalog: empty project name")
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("grant catalog: project %q has no keywords", name)
		}
		projects[name] = append([]string(nil), keywords...)
	}
	return &Catalog{
		projects: projects,
		cross:    append([]string(nil), cfg.CrossProject...),
		portals:  append([]Portal(nil), cfg.Portals...),
	}, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultCatalogConfig())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Projects() []string {
	names := make([]string, 0, len(c.projects))
	for name := range c.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Portals() []Portal {
	return append([]Portal(nil), c.portals...)
}

// Keywords returns a project's keyword list with the cross-project
// keywords appended, deduplicated case-insensitively keeping the first
// occurrence.
func (c *Catalog) Keywords(project string) ([]string, error) {
	own, ok := c.projects[project]
	if !ok {
		return nil, &UnknownProjectError{Project: project}
	}
	seen := make(map[string]struct{}, len(own)+len(c.cross))
	out := make([]string, 0, len(own)+len(c.cross))
	for _, kw := range append(append([]string(nil), own...), c.cross...) {
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out, nil
}

func defaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Version: 1,
		Projects: map[string][]string{
			"empathy-ledger": {
				"storytelling", "digital archive", "Indigenous", "cultural protocols",
				"oral history", "narrative", "OCAP", "data sovereignty",
				"community memory", "story sharing", "First Nations",
				"cultural safety", "ethical technology", "consent",
				"digital platform", "SaaS", "technology innovation",
				"AI ethics", "cultural database",
			},
			"justicehub": {
				"youth justice", "family support", "incarceration", "reentry",
				"recidivism", "justice reform", "CONTAINED",
				"restorative justice", "community corrections", "diversion",
				"youth services", "family strengthening", "wraparound support",
				"justice innovation", "evidence-based", "trauma-informed",
				"systems change", "policy reform",
			},
			"the-harvest": {
				"community", "regenerative", "food security", "volunteering",
				"CSA", "community garden", "wellbeing",
				"mental health", "social enterprise", "local food",
				"community hub", "seasonal gatherings", "food access",
				"healthcare worker", "burnout prevention", "therapeutic gardens",
			},
			"act-farm": {
				"regenerative agriculture", "conservation", "biodiversity",
				"Indigenous land management", "research", "residencies",
				"agroforestry", "habitat restoration", "threatened species",
				"sustainable tourism", "land stewardship", "monitoring",
				"living lab", "R&D", "conservation research", "ecological restoration",
			},
			"goods": {
				"circular economy", "Indigenous business", "ethical supply chain",
				"waste to wealth", "native ingredients", "co-design",
				"social procurement", "Indigenous employment", "remote communities",
				"product innovation", "manufacturing", "sustainability",
			},
		},
		CrossProject: []string{
			"regenerative innovation", "community-led", "First Nations partnerships",
			"systems change", "capacity building", "impact measurement",
			"SROI", "evidence-based", "scalable", "replicable",
		},
		Portals: []Portal{
			{
				Name:      "GrantConnect (Federal)",
				URL:       "https://www.grants.gov.au/",
				Frequency: "weekly",
				Coverage:  "Federal government grants",
			},
			{
				Name:      "Queensland Government",
				URL:       "https://www.qld.gov.au/jobs/business-jobs-industry/support-for-business/grants",
				Frequency: "weekly",
				Coverage:  "State grants and programs",
			},
			{
				Name:      "Philanthropy Australia",
				URL:       "https://www.philanthropy.org.au/",
				Frequency: "monthly",
				Coverage:  "Philanthropic opportunities",
			},
			{
				Name:      "NRMA Community Grants",
				URL:       "https://www.mynrma.com.au/community/grants",
				Frequency: "quarterly",
				Coverage:  "Community and environmental grants",
			},
			{
				Name:      "Gambling Community Benefit Fund",
				URL:       "https://www.justice.qld.gov.au/initiatives/community-grants/gambling-community-benefit-fund",
				Frequency: "quarterly",
				Coverage:  "QLD community benefit grants",
			},
		},
	}
}
