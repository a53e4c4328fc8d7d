package types

import "sort"

type ActionKind string

const (
	ActionAutomatedEmail     ActionKind = "automated_email"
	ActionAutomatedOutreach  ActionKind = "automated_outreach"
	ActionAIGeneratedContent ActionKind = "ai_generated_content"
	ActionBulkOperations     ActionKind = "bulk_operations"
	ActionRead               ActionKind = "read"
	ActionWrite              ActionKind = "write"
	ActionDelete             ActionKind = "delete"
)

func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionAutomatedEmail,
		ActionAutomatedOutreach,
		ActionAIGeneratedContent,
		ActionBulkOperations,
		ActionRead,
		ActionWrite,
		ActionDelete,
	}
}

// ReviewFlag is informational metadata computed per record, never
// persisted and never an error: a flagged record is still returned,
// the caller decides whether to pause its own workflow.
type ReviewFlag struct {
	RequiresReview    bool         `json:"requires_review"`
	Reason            string       `json:"reason,omitempty"`
	BlockedActions    []ActionKind `json:"blocked_actions"`
	RecommendedAction string       `json:"recommended_action,omitempty"`
}

func (f ReviewFlag) Blocks(kind ActionKind) bool {
	for _, blocked := range f.BlockedActions {
		if blocked == kind {
			return true
		}
	}
	return false
}

func SortActionKinds(kinds []ActionKind) []ActionKind {
	out := make([]ActionKind, 0, len(kinds))
	seen := make(map[ActionKind]struct{}, len(kinds))
	for _, kind := range kinds {
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
