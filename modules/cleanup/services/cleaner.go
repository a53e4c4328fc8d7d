package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/act-community/steward/modules/contacts/domain/types"
	contactservices "github.com/act-community/steward/modules/contacts/services"
	"github.com/act-community/steward/pkg/fieldpolicy"
)

// Merge ids are UUIDv5 over a fixed namespace, so the same duplicate
// group proposes the same id on every run.
var mergeNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("steward.act.community"))

// fieldDefaults are applied only when a field is absent or nil, in
// this order.
var fieldDefaults = []struct {
	Name  string
	Value any
}{
	{"volunteer_hours_total", 0},
	{"stories_count", 0},
	{"lifetime_donation_value", 0},
	{"volunteer_orientation_completed", false},
	{"elder_review_required", false},
	{"ndis_participant", false},
	{"pilot_interest", false},
}

// RecordPlan is the full set of fixes one record needs. A plan for a
// record whose review flag requires human review is reported but never
// auto-applied.
type RecordPlan struct {
	ID              string         `json:"id"`
	Fields          map[string]any `json:"fields,omitempty"`
	AddTags         []string       `json:"add_tags,omitempty"`
	RemoveTags      []string       `json:"remove_tags,omitempty"`
	SkippedDefaults []string       `json:"skipped_defaults,omitempty"`
	RequiresReview  bool           `json:"requires_review,omitempty"`
	ReviewReason    string         `json:"review_reason,omitempty"`
}

func (p RecordPlan) Empty() bool {
	return len(p.Fields) == 0 && len(p.AddTags) == 0 && len(p.RemoveTags) == 0
}

type DuplicateGroup struct {
	Email   string   `json:"email"`
	IDs     []string `json:"ids"`
	MergeID string   `json:"merge_id"`
}

type ApplyResult struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
	Skipped string `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Report struct {
	Scanned    int              `json:"scanned"`
	Plans      []RecordPlan     `json:"plans,omitempty"`
	Duplicates []DuplicateGroup `json:"duplicates,omitempty"`
	Results    []ApplyResult    `json:"results,omitempty"`
}

// Cleaner scans the whole contact base and normalizes what automated
// hygiene may touch. Everything it writes goes through the guarded
// store, so field tiers and audit apply; merge execution stays manual.
type Cleaner struct {
	store  *contactservices.GuardedStore
	logger *zap.Logger
}

type CleanerOption func(*Cleaner)

func WithLogger(logger *zap.Logger) CleanerOption {
	return func(c *Cleaner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCleaner(store *contactservices.GuardedStore, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Preview computes the fix plan and the duplicate report without
// writing anything.
func (c *Cleaner) Preview(ctx context.Context) (Report, error) {
	records, err := c.store.Search(ctx, types.Predicate{})
	if err != nil {
		return Report{}, err
	}
	report := Report{Scanned: len(records)}
	for _, record := range records {
		plan := c.planRecord(record)
		if plan.Empty() {
			continue
		}
		report.Plans = append(report.Plans, plan)
	}
	report.Duplicates = duplicateGroups(records)
	return report, nil
}

// Apply runs Preview and pushes each plan through the guarded store.
// Review-flagged records are skipped and reported; a failed write is
// reported per record and does not stop the sweep.
func (c *Cleaner) Apply(ctx context.Context) (Report, error) {
	report, err := c.Preview(ctx)
	if err != nil {
		return Report{}, err
	}
	for _, plan := range report.Plans {
		if plan.RequiresReview {
			report.Results = append(report.Results, ApplyResult{ID: plan.ID, Skipped: plan.ReviewReason})
			continue
		}
		update := types.TagUpdate{Add: plan.AddTags, Remove: plan.RemoveTags}
		if _, err := c.store.Write(ctx, plan.ID, plan.Fields, update); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			c.logger.Warn("cleanup write failed",
				zap.String("contact_id", plan.ID),
				zap.Error(err))
			report.Results = append(report.Results, ApplyResult{ID: plan.ID, Error: err.Error()})
			continue
		}
		report.Results = append(report.Results, ApplyResult{ID: plan.ID, Applied: true})
	}
	c.logger.Info("cleanup applied",
		zap.Int("scanned", report.Scanned),
		zap.Int("planned", len(report.Plans)),
		zap.Int("results", len(report.Results)))
	return report, nil
}

// FindDuplicates groups contacts by normalized email and reports the
// groups with more than one member.
func (c *Cleaner) FindDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	records, err := c.store.Search(ctx, types.Predicate{})
	if err != nil {
		return nil, err
	}
	return duplicateGroups(records), nil
}

func (c *Cleaner) planRecord(record contactservices.GuardedContact) RecordPlan {
	contact := record.Contact
	plan := RecordPlan{
		ID:             contact.ID,
		RequiresReview: record.Review.RequiresReview,
		ReviewReason:   record.Review.Reason,
	}

	normalized := NormalizeTags(contact.Tags)
	keep := make(map[string]struct{}, len(normalized))
	for _, tag := range normalized {
		keep[tag] = struct{}{}
		if !contact.HasTag(tag) {
			plan.AddTags = append(plan.AddTags, tag)
		}
	}
	for _, tag := range contact.Tags {
		if _, ok := keep[tag]; !ok {
			plan.RemoveTags = append(plan.RemoveTags, tag)
		}
	}

	fields := make(map[string]any)
	if raw, ok := contact.Fields["email"]; ok {
		if email, ok := raw.(string); ok {
			if normalized := NormalizeEmail(email); normalized != email {
				fields["email"] = normalized
			}
		}
	}
	if raw, ok := contact.Fields["phone"]; ok {
		if phone, ok := raw.(string); ok {
			if normalized := NormalizePhone(phone); normalized != phone {
				fields["phone"] = normalized
			}
		}
	}
	for _, def := range fieldDefaults {
		value, present := contact.Fields[def.Name]
		if present && value != nil {
			continue
		}
		if err := c.store.Policy().Check(def.Name, fieldpolicy.ActionWrite); err != nil {
			plan.SkippedDefaults = append(plan.SkippedDefaults, def.Name)
			continue
		}
		fields[def.Name] = def.Value
	}
	if len(fields) > 0 {
		plan.Fields = fields
	}
	return plan
}

func duplicateGroups(records []contactservices.GuardedContact) []DuplicateGroup {
	byEmail := make(map[string][]string)
	for _, record := range records {
		raw, ok := record.Contact.Fields["email"]
		if !ok {
			continue
		}
		email, ok := raw.(string)
		if !ok {
			continue
		}
		email = NormalizeEmail(email)
		if email == "" {
			continue
		}
		byEmail[email] = append(byEmail[email], record.Contact.ID)
	}

	emails := make([]string, 0, len(byEmail))
	for email, ids := range byEmail {
		if len(ids) > 1 {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)

	var groups []DuplicateGroup
	for _, email := range emails {
		ids := byEmail[email]
		sort.Strings(ids)
		groups = append(groups, DuplicateGroup{
			Email:   email,
			IDs:     ids,
			MergeID: uuid.NewSHA1(mergeNamespace, []byte(email)).String(),
		})
	}
	return groups
}
