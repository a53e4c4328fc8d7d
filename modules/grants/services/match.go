package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type UnknownProjectError struct {
	Project string
}

func (e *UnknownProjectError) Error() string {
	return fmt.Sprintf("unknown project %q", e.Project)
}

func IsUnknownProject(err error) bool {
	_, ok := errors.AsType[*UnknownProjectError](err)
	return ok
}

// Opportunity is a grant candidate as pasted or fed in; URL and Portal
// are carried through untouched.
type Opportunity struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Portal      string `json:"portal"`
}

type ScoredOpportunity struct {
	Opportunity
	Project         string   `json:"project"`
	MatchedKeywords []string `json:"matched_keywords"`
	Relevance       int      `json:"relevance"`
}

// Match scores one opportunity against a project's keywords plus the
// cross-project set. A keyword matches as a case-insensitive substring
// of the title and description; relevance is the number of distinct
// keywords matched.
func (c *Catalog) Match(project string, opp Opportunity) (ScoredOpportunity, error) {
	keywords, err := c.Keywords(project)
	if err != nil {
		return ScoredOpportunity{}, err
	}
	text := strings.ToLower(opp.Title + "\n" + opp.Description)
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return ScoredOpportunity{
		Opportunity:     opp,
		Project:         project,
		MatchedKeywords: matched,
		Relevance:       len(matched),
	}, nil
}

// Rank scores a batch and returns the relevant ones ordered by
// relevance descending, ties broken by title ascending. Candidates
// matching no keyword at all are dropped.
func (c *Catalog) Rank(project string, opps []Opportunity) ([]ScoredOpportunity, error) {
	scored := make([]ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		s, err := c.Match(project, opp)
		if err != nil {
			return nil, err
		}
		if s.Relevance == 0 {
			continue
		}
		scored = append(scored, s)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Relevance != scored[j].Relevance {
			return scored[i].Relevance > scored[j].Relevance
		}
		return scored[i].Title < scored[j].Title
	})
	if len(scored) == 0 {
		return nil, nil
	}
	return scored, nil
}
