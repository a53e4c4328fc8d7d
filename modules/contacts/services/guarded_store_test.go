package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
	"github.com/act-community/steward/modules/contacts/infrastructure/persistence"
	"github.com/act-community/steward/pkg/fieldpolicy"
)

type testSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *testSink) Record(_ context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *testSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func (s *testSink) find(kind string) (AuditEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Kind == kind {
			return e, true
		}
	}
	return AuditEvent{}, false
}

type countingStore struct {
	ports.ContactStore
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, contact types.Contact) (types.Contact, error) {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.ContactStore.Save(ctx, contact)
}

func (s *countingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newTestGuarded(t *testing.T) (*GuardedStore, *countingStore, *testSink) {
	t.Helper()
	memory := persistence.NewContactMemoryStore()
	memory.SeedDemo()
	store := &countingStore{ContactStore: memory}
	classifier := mustClassifier(t, DefaultReviewConfig())
	sink := &testSink{}
	guarded := NewGuardedStore(store, fieldpolicy.Default(), classifier, WithAuditSink(sink))
	return guarded, store, sink
}

func TestGetFlagsElderContact(t *testing.T) {
	guarded, _, sink := newTestGuarded(t)

	got, err := guarded.Get(context.Background(), "contact_003")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Contact.Fields["first_name"] != "Mary" {
		t.Fatalf("unexpected contact: %+v", got.Contact)
	}
	if !got.Review.RequiresReview {
		t.Fatalf("elder contact not flagged: %+v", got.Review)
	}
	if !got.Review.Blocks(types.ActionAutomatedEmail) {
		t.Fatalf("automated_email not blocked: %v", got.Review.BlockedActions)
	}
	event, ok := sink.find("review_flagged")
	if !ok {
		t.Fatalf("no review_flagged audit event, got %v", sink.kinds())
	}
	if event.RecordID != "contact_003" {
		t.Fatalf("unexpected audit record: %+v", event)
	}
}

func TestGetNotFound(t *testing.T) {
	guarded, _, _ := newTestGuarded(t)
	_, err := guarded.Get(context.Background(), "contact_404")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "contact_404" {
		t.Fatalf("unexpected error shape: %v", err)
	}
}

func TestSearchDeniesBlockedPredicateField(t *testing.T) {
	guarded, _, sink := newTestGuarded(t)

	results, err := guarded.Search(context.Background(), types.Predicate{
		Fields: []types.FieldCondition{
			{Field: "stories_count", Op: types.CompareGte, Value: 1},
			{Field: "sacred_knowledge", Op: types.CompareExists, Value: true},
		},
	})
	if results != nil {
		t.Fatalf("expected no partial results, got %d", len(results))
	}
	violation, ok := fieldpolicy.AsViolation(err)
	if !ok {
		t.Fatalf("expected violation, got %v", err)
	}
	if violation.Field != "sacred_knowledge" || violation.Code() != "FIELD_BLOCKED" {
		t.Fatalf("unexpected violation: %+v", violation)
	}
	event, ok := sink.find("policy_denied")
	if !ok {
		t.Fatalf("no policy_denied audit event, got %v", sink.kinds())
	}
	if event.Field != "sacred_knowledge" || event.Decision != "deny" {
		t.Fatalf("unexpected audit event: %+v", event)
	}
}

func TestSearchReadOnlyFieldIsReadable(t *testing.T) {
	guarded, _, sink := newTestGuarded(t)

	// read_only denies writes, reads pass.
	results, err := guarded.Search(context.Background(), types.Predicate{
		Fields: []types.FieldCondition{
			{Field: "elder_review_required", Op: types.CompareExists, Value: true},
		},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Contact.ID != "contact_003" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !results[0].Review.RequiresReview {
		t.Fatalf("result missing review flag: %+v", results[0].Review)
	}
	// Search attaches flags without spamming the audit trail.
	if _, ok := sink.find("review_flagged"); ok {
		t.Fatalf("search audited review flags: %v", sink.kinds())
	}
}

func TestWriteDeniedLeavesStoreUntouched(t *testing.T) {
	guarded, store, sink := newTestGuarded(t)
	ctx := context.Background()

	// One clean field plus one blocked field: nothing may land.
	_, err := guarded.Write(ctx, "contact_001", map[string]any{
		"stories_count": 6,
		"elder_consent": true,
	}, types.TagUpdate{})
	violation, ok := fieldpolicy.AsViolation(err)
	if !ok {
		t.Fatalf("expected violation, got %v", err)
	}
	if violation.Field != "elder_consent" || violation.Code() != "FIELD_BLOCKED" {
		t.Fatalf("unexpected violation: %+v", violation)
	}
	if store.saveCount() != 0 {
		t.Fatalf("denied write reached the store %d times", store.saveCount())
	}

	got, err := guarded.Get(ctx, "contact_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Contact.Fields["stories_count"] != 5 {
		t.Fatalf("clean field mutated by denied write: %v", got.Contact.Fields["stories_count"])
	}
	if _, ok := got.Contact.Fields["elder_consent"]; ok {
		t.Fatal("blocked field landed")
	}
	if _, ok := sink.find("policy_denied"); !ok {
		t.Fatalf("no policy_denied audit event, got %v", sink.kinds())
	}
}

func TestWriteReadOnlyFieldDenied(t *testing.T) {
	guarded, store, _ := newTestGuarded(t)

	_, err := guarded.Write(context.Background(), "contact_003", map[string]any{
		"cultural_protocols": "overwritten",
	}, types.TagUpdate{})
	violation, ok := fieldpolicy.AsViolation(err)
	if !ok {
		t.Fatalf("expected violation, got %v", err)
	}
	if violation.Code() != "FIELD_READ_ONLY" {
		t.Fatalf("unexpected code: %s", violation.Code())
	}
	if store.saveCount() != 0 {
		t.Fatal("read-only write reached the store")
	}
}

func TestWriteOpenFieldsAndTags(t *testing.T) {
	guarded, _, sink := newTestGuarded(t)
	ctx := context.Background()

	got, err := guarded.Write(ctx, "contact_002", map[string]any{
		"stories_count": 1,
		"notes":         "met at the verge garden",
	}, types.TagUpdate{Add: []string{"interest:verge-gardens"}, Remove: []string{"engagement:alumni"}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if got.Contact.Fields["stories_count"] != 1 || got.Contact.Fields["notes"] != "met at the verge garden" {
		t.Fatalf("fields not applied: %+v", got.Contact.Fields)
	}
	if !got.Contact.HasTag("interest:verge-gardens") {
		t.Fatalf("tag not added: %v", got.Contact.Tags)
	}
	if got.Contact.HasTag("engagement:alumni") {
		t.Fatalf("tag not removed: %v", got.Contact.Tags)
	}

	applied, ok := sink.find("write_applied")
	if !ok {
		t.Fatalf("no write_applied audit event, got %v", sink.kinds())
	}
	// Audited field list is the sorted key set.
	if applied.Field != "notes,stories_count" {
		t.Fatalf("unexpected audited fields: %q", applied.Field)
	}
	if _, ok := sink.find("tag_added"); !ok {
		t.Fatalf("no tag_added audit event, got %v", sink.kinds())
	}
	if _, ok := sink.find("tag_removed"); !ok {
		t.Fatalf("no tag_removed audit event, got %v", sink.kinds())
	}
}

func TestWriteNotFound(t *testing.T) {
	guarded, _, _ := newTestGuarded(t)
	_, err := guarded.Write(context.Background(), "contact_404", map[string]any{"notes": "x"}, types.TagUpdate{})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestWriteCancelledContext(t *testing.T) {
	guarded, store, _ := newTestGuarded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := guarded.Write(ctx, "contact_001", map[string]any{"notes": "x"}, types.TagUpdate{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatal("cancelled write reached the store")
	}
}

func TestAddTagIdempotent(t *testing.T) {
	guarded, store, _ := newTestGuarded(t)
	ctx := context.Background()

	first, err := guarded.AddTag(ctx, "contact_001", "storyteller")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !first.Contact.HasTag("storyteller") {
		t.Fatalf("tag missing after add: %v", first.Contact.Tags)
	}
	if store.saveCount() != 1 {
		t.Fatalf("expected one save, got %d", store.saveCount())
	}

	second, err := guarded.AddTag(ctx, "contact_001", "storyteller")
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if store.saveCount() != 1 {
		t.Fatalf("duplicate add touched the store, saves=%d", store.saveCount())
	}
	count := 0
	for _, tag := range second.Contact.Tags {
		if tag == "storyteller" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("tag duplicated: %v", second.Contact.Tags)
	}
}

func TestRemoveTagIdempotent(t *testing.T) {
	guarded, store, _ := newTestGuarded(t)
	ctx := context.Background()

	got, err := guarded.RemoveTag(ctx, "contact_001", "not-there")
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatalf("no-op remove touched the store, saves=%d", store.saveCount())
	}
	if len(got.Contact.Tags) == 0 {
		t.Fatalf("contact tags lost: %+v", got.Contact)
	}

	got, err = guarded.RemoveTag(ctx, "contact_001", "engagement:active")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.Contact.HasTag("engagement:active") {
		t.Fatalf("tag survived removal: %v", got.Contact.Tags)
	}
	if store.saveCount() != 1 {
		t.Fatalf("expected one save, got %d", store.saveCount())
	}
}

func TestWriteSerializesPerContact(t *testing.T) {
	guarded, _, _ := newTestGuarded(t)
	ctx := context.Background()

	tags := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			if _, err := guarded.AddTag(ctx, "contact_001", tag); err != nil {
				t.Errorf("add %s: %v", tag, err)
			}
		}(tag)
	}
	wg.Wait()

	got, err := guarded.Get(ctx, "contact_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, tag := range tags {
		if !got.Contact.HasTag(tag) {
			t.Fatalf("lost concurrent tag %s: %v", tag, got.Contact.Tags)
		}
	}
}

func TestWriteTagsNotFieldGated(t *testing.T) {
	guarded, _, _ := newTestGuarded(t)
	ctx := context.Background()

	// Tagging a record that carries blocked fields is allowed; the
	// gate applies to field keys, not to the record.
	got, err := guarded.AddTag(ctx, "contact_003", "cultural:sorry-business")
	if err != nil {
		t.Fatalf("add tag: %v", err)
	}
	if !got.Review.RequiresReview {
		t.Fatalf("flag missing after tag update: %+v", got.Review)
	}
	if !strings.Contains(got.Review.Reason, "cultural") && !strings.Contains(got.Review.Reason, "Elder") {
		t.Fatalf("unexpected reason: %q", got.Review.Reason)
	}
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	memory := persistence.NewContactMemoryStore()
	memory.SeedDemo()
	classifier := mustClassifier(t, DefaultReviewConfig())
	guarded := NewGuardedStore(memory, fieldpolicy.Default(), classifier, WithAuditSink(failingSink{}))

	got, err := guarded.Get(context.Background(), "contact_003")
	if err != nil {
		t.Fatalf("get with failing sink: %v", err)
	}
	if !got.Review.RequiresReview {
		t.Fatalf("flag missing: %+v", got.Review)
	}
}

type failingSink struct{}

func (failingSink) Record(context.Context, AuditEvent) error {
	return errors.New("sink down")
}
