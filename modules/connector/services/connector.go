package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/act-community/steward/modules/contacts/domain/types"
	contactservices "github.com/act-community/steward/modules/contacts/services"
)

// OpportunityRule describes when a contact in one project should be
// offered a path into another. Conditions reuse the search predicate,
// so a rule can match on tags and on field comparisons.
type OpportunityRule struct {
	SourceProject string
	TargetProject string
	Conditions    types.Predicate
	Reason        string
	Priority      int
}

type Opportunity struct {
	ContactID     string `json:"contact_id"`
	ContactName   string `json:"contact_name,omitempty"`
	SourceProject string `json:"source_project"`
	TargetProject string `json:"target_project"`
	Reason        string `json:"reason"`
	Priority      int    `json:"priority"`
}

type Handoff struct {
	ContactID      string `json:"contact_id"`
	ContactName    string `json:"contact_name,omitempty"`
	TargetProject  string `json:"target_project"`
	Reason         string `json:"reason"`
	Priority       int    `json:"priority"`
	OpportunityTag string `json:"opportunity_tag"`
	PriorityTag    string `json:"priority_tag"`
}

type NoOpportunityError struct {
	ContactID string
	Target    string
}

func (e *NoOpportunityError) Error() string {
	return fmt.Sprintf("contact %q has no open opportunity into %q", e.ContactID, e.Target)
}

// Connector detects cross-project opportunities and executes handoffs
// as plain tag additions through the guarded store, so classification
// and audit apply to every handoff.
type Connector struct {
	store    *contactservices.GuardedStore
	rules    []OpportunityRule
	projects map[string]struct{}
	logger   *zap.Logger
}

type ConnectorOption func(*Connector)

func WithLogger(logger *zap.Logger) ConnectorOption {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConnector validates the rule catalog. The set of known project
// tags is derived from the rules themselves: every source and target
// project counts.
func NewConnector(store *contactservices.GuardedStore, rules []OpportunityRule, opts ...ConnectorOption) (*Connector, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("connector: empty rule catalog")
	}
	projects := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if rule.SourceProject == "" || rule.TargetProject == "" {
			return nil, fmt.Errorf("connector: rule %d is missing a project", i)
		}
		if rule.SourceProject == rule.TargetProject {
			return nil, fmt.Errorf("connector: rule %d hands %q off to itself", i, rule.SourceProject)
		}
		if rule.Priority < 1 || rule.Priority > 5 {
			return nil, fmt.Errorf("connector: rule %d priority %d out of range 1-5", i, rule.Priority)
		}
		if len(rule.Conditions.Fields) == 0 && len(rule.Conditions.AnyTags) == 0 && len(rule.Conditions.AllTags) == 0 {
			return nil, fmt.Errorf("connector: rule %d has no conditions", i)
		}
		projects[rule.SourceProject] = struct{}{}
		projects[rule.TargetProject] = struct{}{}
	}
	c := &Connector{
		store:    store,
		rules:    append([]OpportunityRule(nil), rules...),
		projects: projects,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func NewDefaultConnector(store *contactservices.GuardedStore, opts ...ConnectorOption) *Connector {
	c, err := NewConnector(store, DefaultRules(), opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Projects lists every project the catalog hands off from or into,
// sorted.
func (c *Connector) Projects() []string {
	out := make([]string, 0, len(c.projects))
	for name := range c.projects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FindForContact evaluates the catalog against one contact. Only rules
// whose source project the contact is tagged with are considered, and
// a target the contact already carries is skipped. Matches come back
// sorted by priority, highest first, catalog order preserved within a
// priority.
func (c *Connector) FindForContact(ctx context.Context, id string) ([]Opportunity, error) {
	record, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	contact := record.Contact

	current := make(map[string]struct{})
	for _, tag := range contact.Tags {
		if _, ok := c.projects[tag]; ok {
			current[tag] = struct{}{}
		}
	}
	if len(current) == 0 {
		return nil, nil
	}

	name := contactName(contact)
	var found []Opportunity
	for _, rule := range c.rules {
		if _, ok := current[rule.SourceProject]; !ok {
			continue
		}
		if contact.HasTag(rule.TargetProject) {
			continue
		}
		if !rule.Conditions.Matches(contact) {
			continue
		}
		found = append(found, Opportunity{
			ContactID:     id,
			ContactName:   name,
			SourceProject: rule.SourceProject,
			TargetProject: rule.TargetProject,
			Reason:        rule.Reason,
			Priority:      rule.Priority,
		})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Priority > found[j].Priority })
	return found, nil
}

// CreateHandoff resolves the highest-priority open opportunity into
// the target project and tags the contact with it.
func (c *Connector) CreateHandoff(ctx context.Context, id, target string) (Handoff, error) {
	opportunities, err := c.FindForContact(ctx, id)
	if err != nil {
		return Handoff{}, err
	}
	var match *Opportunity
	for i := range opportunities {
		if opportunities[i].TargetProject == target {
			match = &opportunities[i]
			break
		}
	}
	if match == nil {
		return Handoff{}, &NoOpportunityError{ContactID: id, Target: target}
	}

	opportunityTag := "opportunity:" + target
	priorityTag := priorityTag(match.Priority)
	if _, err := c.store.AddTag(ctx, id, opportunityTag); err != nil {
		return Handoff{}, err
	}
	if _, err := c.store.AddTag(ctx, id, priorityTag); err != nil {
		return Handoff{}, err
	}

	c.logger.Info("handoff created",
		zap.String("contact_id", id),
		zap.String("target_project", target),
		zap.Int("priority", match.Priority))

	return Handoff{
		ContactID:      id,
		ContactName:    match.ContactName,
		TargetProject:  target,
		Reason:         match.Reason,
		Priority:       match.Priority,
		OpportunityTag: opportunityTag,
		PriorityTag:    priorityTag,
	}, nil
}

func priorityTag(priority int) string {
	switch {
	case priority >= 4:
		return "priority:high"
	case priority >= 3:
		return "priority:medium"
	default:
		return "priority:low"
	}
}

func contactName(contact types.Contact) string {
	first, _ := contact.Fields["first_name"].(string)
	last, _ := contact.Fields["last_name"].(string)
	return strings.TrimSpace(first + " " + last)
}
