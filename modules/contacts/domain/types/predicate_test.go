package types

import (
	"strings"
	"testing"
)

func TestPredicate_FieldNamesDeclarationOrder(t *testing.T) {
	p := Predicate{Fields: []FieldCondition{
		{Field: "stories_count", Op: CompareGte, Value: 1},
		{Field: "status", Op: CompareEq, Value: "active"},
		{Field: "email", Op: CompareExists, Value: true},
	}}
	if got := strings.Join(p.FieldNames(), ","); got != "stories_count,status,email" {
		t.Fatalf("names=%s", got)
	}
}

func TestPredicate_Matches(t *testing.T) {
	contact := Contact{
		ID:     "contact_002",
		Tags:   []string{"volunteer", "storyteller"},
		Fields: map[string]any{"stories_count": 5, "status": "active", "engagement_score": 72.5},
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{name: "eq string", p: Predicate{Fields: []FieldCondition{{Field: "status", Op: CompareEq, Value: "active"}}}, want: true},
		{name: "eq cross numeric", p: Predicate{Fields: []FieldCondition{{Field: "stories_count", Op: CompareEq, Value: float64(5)}}}, want: true},
		{name: "gte hit", p: Predicate{Fields: []FieldCondition{{Field: "engagement_score", Op: CompareGte, Value: 70}}}, want: true},
		{name: "gte miss", p: Predicate{Fields: []FieldCondition{{Field: "engagement_score", Op: CompareGte, Value: 90}}}, want: false},
		{name: "lte hit", p: Predicate{Fields: []FieldCondition{{Field: "stories_count", Op: CompareLte, Value: 5}}}, want: true},
		{name: "exists true", p: Predicate{Fields: []FieldCondition{{Field: "status", Op: CompareExists, Value: true}}}, want: true},
		{name: "exists false on present", p: Predicate{Fields: []FieldCondition{{Field: "status", Op: CompareExists, Value: false}}}, want: false},
		{name: "exists false on absent", p: Predicate{Fields: []FieldCondition{{Field: "elder_consent", Op: CompareExists, Value: false}}}, want: true},
		{name: "gte non numeric", p: Predicate{Fields: []FieldCondition{{Field: "status", Op: CompareGte, Value: 1}}}, want: false},
		{name: "absent field eq", p: Predicate{Fields: []FieldCondition{{Field: "missing", Op: CompareEq, Value: "x"}}}, want: false},
		{name: "any tags hit", p: Predicate{AnyTags: []string{"donor", "volunteer"}}, want: true},
		{name: "any tags miss", p: Predicate{AnyTags: []string{"donor"}}, want: false},
		{name: "all tags hit", p: Predicate{AllTags: []string{"volunteer", "storyteller"}}, want: true},
		{name: "all tags miss", p: Predicate{AllTags: []string{"volunteer", "donor"}}, want: false},
		{name: "fields and tags", p: Predicate{
			Fields:  []FieldCondition{{Field: "stories_count", Op: CompareGte, Value: 3}},
			AllTags: []string{"storyteller"},
		}, want: true},
		{name: "empty matches all", p: Predicate{}, want: true},
	}
	for _, tt := range tests {
		if got := tt.p.Matches(contact); got != tt.want {
			t.Fatalf("%s: got=%v want=%v", tt.name, got, tt.want)
		}
	}
}

func TestSortActionKinds_DedupAndOrder(t *testing.T) {
	got := SortActionKinds([]ActionKind{
		ActionBulkOperations,
		ActionAutomatedEmail,
		ActionBulkOperations,
		ActionAIGeneratedContent,
	})
	if len(got) != 3 {
		t.Fatalf("got=%v", got)
	}
	if got[0] != ActionAIGeneratedContent || got[1] != ActionAutomatedEmail || got[2] != ActionBulkOperations {
		t.Fatalf("got=%v", got)
	}
}

func TestReviewFlag_Blocks(t *testing.T) {
	flag := ReviewFlag{BlockedActions: []ActionKind{ActionAutomatedEmail, ActionBulkOperations}}
	if !flag.Blocks(ActionAutomatedEmail) {
		t.Fatalf("expected blocked")
	}
	if flag.Blocks(ActionRead) {
		t.Fatalf("read must not be blocked")
	}
}
