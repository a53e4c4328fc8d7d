package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
)

// ContactMemoryStore backs deployments without a database. Unlike the
// pg store it is shared mutable state, so access goes through a lock.
type ContactMemoryStore struct {
	mu       sync.RWMutex
	contacts map[string]types.Contact
}

func NewContactMemoryStore() *ContactMemoryStore {
	return &ContactMemoryStore{contacts: make(map[string]types.Contact)}
}

func (s *ContactMemoryStore) Load(_ context.Context, id string) (types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[id]
	if !ok {
		return types.Contact{}, ports.ErrNotFound
	}
	return contact.Clone(), nil
}

func (s *ContactMemoryStore) Save(_ context.Context, contact types.Contact) (types.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	stored := contact.Clone()
	if existing, ok := s.contacts[contact.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.contacts[contact.ID] = stored
	return stored.Clone(), nil
}

func (s *ContactMemoryStore) Query(_ context.Context, predicate types.Predicate) ([]types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.contacts))
	for id := range s.contacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []types.Contact
	for _, id := range ids {
		contact := s.contacts[id]
		if predicate.Matches(contact) {
			out = append(out, contact.Clone())
		}
	}
	return out, nil
}

// SeedDemo loads the stock demo dataset so a fresh server answers
// real queries without a database.
func (s *ContactMemoryStore) SeedDemo() {
	seeded := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, contact := range DemoContacts() {
		contact.CreatedAt = seeded
		contact.UpdatedAt = seeded
		s.contacts[contact.ID] = contact
	}
}

// DemoContacts is the stock demo dataset: five contacts spanning the
// storyteller, resident, elder, partner and volunteer shapes the
// modules key off.
func DemoContacts() []types.Contact {
	return []types.Contact{
		{
			ID:   "contact_001",
			Tags: []string{"empathy-ledger", "role:storyteller", "engagement:active"},
			Fields: map[string]any{
				"email":                 "jane.smith@example.com",
				"first_name":            "Jane",
				"last_name":             "Smith",
				"phone":                 "+61412345678",
				"supabase_user_id":      "uuid-123-storyteller",
				"storyteller_status":    "Active",
				"stories_count":         5,
				"consent_status":        "Full consent",
				"ai_processing_consent": "Yes",
			},
		},
		{
			ID:   "contact_002",
			Tags: []string{"act-farm", "role:resident", "engagement:alumni", "interest:storytelling", "category:artist"},
			Fields: map[string]any{
				"email":               "john.doe@example.com",
				"first_name":          "John",
				"last_name":           "Doe",
				"phone":               "+61423456789",
				"residency_type":      "Creative Residency",
				"residency_dates":     "2025-03-15 to 2025-03-22",
				"residency_completed": true,
				"research_focus":      "Environmental art and conservation storytelling",
			},
		},
		{
			ID:   "contact_003",
			Tags: []string{"empathy-ledger", "the-harvest", "role:elder", "cultural:kabi-kabi", "priority:high", "engagement:active"},
			Fields: map[string]any{
				"email":                 "elder.mary@example.com",
				"first_name":            "Mary",
				"last_name":             "Johnson",
				"phone":                 "+61434567890",
				"supabase_user_id":      "uuid-456-elder",
				"cultural_protocols":    "Kabi Kabi Elder - requires cultural review for all communications",
				"elder_review_required": true,
				"stories_count":         12,
				"volunteer_hours_total": 240,
			},
		},
		{
			ID:   "contact_004",
			Tags: []string{"empathy-ledger", "role:partner", "engagement:lead", "category:organization", "category:university", "lead:saas"},
			Fields: map[string]any{
				"email":                 "sarah.chen@university.edu.au",
				"first_name":            "Sarah",
				"last_name":             "Chen",
				"phone":                 "+61445678901",
				"company_name":          "University of Queensland",
				"organization_type":     "University",
				"estimated_users":       500,
				"pilot_interest":        true,
				"arr":                   6000,
				"customer_health_score": 85,
			},
		},
		{
			ID:   "contact_005",
			Tags: []string{"the-harvest", "role:volunteer", "engagement:active", "interest:conservation", "interest:regenerative-agriculture"},
			Fields: map[string]any{
				"email":                           "michael.brown@example.com",
				"first_name":                      "Michael",
				"last_name":                       "Brown",
				"phone":                           "+61456789012",
				"volunteer_interests":             "Gardening & land care, Conservation projects",
				"volunteer_hours_total":           65,
				"volunteer_orientation_completed": true,
				"membership_level":                "Supporter ($100/year)",
			},
		},
	}
}
