package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
	"github.com/act-community/steward/pkg/fieldpolicy"
)

type GuardedContact struct {
	Contact types.Contact
	Review  types.ReviewFlag
}

type AuditEvent struct {
	Kind     string
	RecordID string
	Field    string
	Action   string
	Decision string
	Reason   string
}

type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// GuardedStore is the only way into the contact store: every operation
// resolves the touched field names against the tier registry before
// the store is reached, and every returned record carries a fresh
// review flag. The registry gates queries and writes into named
// fields; whole-record reads by id return the record as stored.
type GuardedStore struct {
	store      ports.ContactStore
	policy     *fieldpolicy.Registry
	classifier *Classifier
	logger     *zap.Logger
	audit      AuditSink

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type GuardedStoreOption func(*GuardedStore)

func WithLogger(logger *zap.Logger) GuardedStoreOption {
	return func(g *GuardedStore) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithAuditSink(sink AuditSink) GuardedStoreOption {
	return func(g *GuardedStore) { g.audit = sink }
}

func NewGuardedStore(store ports.ContactStore, policy *fieldpolicy.Registry, classifier *Classifier, opts ...GuardedStoreOption) *GuardedStore {
	g := &GuardedStore{
		store:      store,
		policy:     policy,
		classifier: classifier,
		logger:     zap.NewNop(),
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get fetches a whole record by id. No field-level gating applies; the
// classifier still runs and flagged records are logged and audited.
func (g *GuardedStore) Get(ctx context.Context, id string) (GuardedContact, error) {
	contact, err := g.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return GuardedContact{}, &NotFoundError{ID: id}
		}
		return GuardedContact{}, err
	}
	return g.announce(ctx, contact), nil
}

// Search checks every predicate field for read access, in declaration
// order, before the store is queried. One violation aborts the whole
// search with no partial results.
func (g *GuardedStore) Search(ctx context.Context, predicate types.Predicate) ([]GuardedContact, error) {
	for _, field := range predicate.FieldNames() {
		if err := g.policy.Check(field, fieldpolicy.ActionRead); err != nil {
			g.denied(ctx, "", err)
			return nil, err
		}
	}

	contacts, err := g.store.Query(ctx, predicate)
	if err != nil {
		return nil, err
	}
	out := make([]GuardedContact, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, GuardedContact{Contact: contact, Review: g.classifier.Classify(contact)})
	}
	return out, nil
}

// Write checks every field key for write access (sorted key order, so
// the reported violation is deterministic), then applies fields and
// tag updates under the record's lock: check-then-apply, never
// partial. Tag updates are not field-gated.
func (g *GuardedStore) Write(ctx context.Context, id string, fields map[string]any, tags types.TagUpdate) (GuardedContact, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := g.policy.Check(key, fieldpolicy.ActionWrite); err != nil {
			g.denied(ctx, id, err)
			return GuardedContact{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return GuardedContact{}, err
	}

	unlock := g.lockContact(id)
	defer unlock()

	contact, err := g.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return GuardedContact{}, &NotFoundError{ID: id}
		}
		return GuardedContact{}, err
	}

	updated := contact.Clone()
	changed := len(keys) > 0
	for _, key := range keys {
		updated.Fields[key] = fields[key]
	}

	var added, removed []string
	for _, tag := range tags.Add {
		if !updated.HasTag(tag) {
			updated.Tags = append(updated.Tags, tag)
			added = append(added, tag)
		}
	}
	for _, tag := range tags.Remove {
		if updated.HasTag(tag) {
			updated.Tags = deleteTag(updated.Tags, tag)
			removed = append(removed, tag)
		}
	}
	changed = changed || len(added) > 0 || len(removed) > 0

	if !changed {
		return g.announce(ctx, contact), nil
	}

	saved, err := g.store.Save(ctx, updated)
	if err != nil {
		return GuardedContact{}, err
	}

	if len(keys) > 0 {
		g.record(ctx, AuditEvent{
			Kind:     "write_applied",
			RecordID: id,
			Field:    strings.Join(keys, ","),
			Action:   string(fieldpolicy.ActionWrite),
			Decision: "allow",
		})
	}
	for _, tag := range added {
		g.record(ctx, AuditEvent{Kind: "tag_added", RecordID: id, Field: tag, Decision: "allow"})
	}
	for _, tag := range removed {
		g.record(ctx, AuditEvent{Kind: "tag_removed", RecordID: id, Field: tag, Decision: "allow"})
	}
	return g.announce(ctx, saved), nil
}

// AddTag is idempotent: adding a tag that is already present is a
// no-op and does not touch the store.
func (g *GuardedStore) AddTag(ctx context.Context, id string, tag string) (GuardedContact, error) {
	return g.Write(ctx, id, nil, types.TagUpdate{Add: []string{tag}})
}

// RemoveTag is idempotent: removing an absent tag is a no-op.
func (g *GuardedStore) RemoveTag(ctx context.Context, id string, tag string) (GuardedContact, error) {
	return g.Write(ctx, id, nil, types.TagUpdate{Remove: []string{tag}})
}

func (g *GuardedStore) Classify(contact types.Contact) types.ReviewFlag {
	return g.classifier.Classify(contact)
}

func (g *GuardedStore) Policy() *fieldpolicy.Registry { return g.policy }

// lockContact serializes writes per record id so two concurrent writes
// to the same contact never interleave; different ids proceed in
// parallel.
func (g *GuardedStore) lockContact(id string) func() {
	g.mu.Lock()
	lock, ok := g.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[id] = lock
	}
	g.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (g *GuardedStore) announce(ctx context.Context, contact types.Contact) GuardedContact {
	flag := g.classifier.Classify(contact)
	if flag.RequiresReview {
		g.logger.Warn("contact requires review",
			zap.String("contact_id", contact.ID),
			zap.String("reason", flag.Reason),
			zap.String("recommended_action", flag.RecommendedAction),
		)
		g.record(ctx, AuditEvent{
			Kind:     "review_flagged",
			RecordID: contact.ID,
			Decision: "allow",
			Reason:   flag.Reason,
		})
	}
	return GuardedContact{Contact: contact, Review: flag}
}

func (g *GuardedStore) denied(ctx context.Context, id string, err error) {
	violation, ok := fieldpolicy.AsViolation(err)
	if !ok {
		return
	}
	g.logger.Warn("field access denied",
		zap.String("contact_id", id),
		zap.String("field", violation.Field),
		zap.String("action", string(violation.Action)),
		zap.String("tier", string(violation.Tier)),
	)
	g.record(ctx, AuditEvent{
		Kind:     "policy_denied",
		RecordID: id,
		Field:    violation.Field,
		Action:   string(violation.Action),
		Decision: "deny",
		Reason:   violation.Code(),
	})
}

func (g *GuardedStore) record(ctx context.Context, event AuditEvent) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Record(ctx, event); err != nil {
		g.logger.Error("audit record failed", zap.Error(err), zap.String("kind", event.Kind))
	}
}

func deleteTag(tags []string, tag string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
