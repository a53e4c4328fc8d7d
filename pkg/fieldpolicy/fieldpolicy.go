package fieldpolicy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Tier string

const (
	TierOpen     Tier = "OPEN"
	TierReadOnly Tier = "READ_ONLY"
	TierBlocked  Tier = "BLOCKED"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

const (
	CodeFieldBlocked  = "FIELD_BLOCKED"
	CodeFieldReadOnly = "FIELD_READ_ONLY"
)

// Violation reports that a field's tier forbids the attempted action.
// It carries the offending field and action so callers can react
// programmatically instead of matching on message text.
type Violation struct {
	Field  string
	Action Action
	Tier   Tier
}

func (v *Violation) Error() string {
	if v.Tier == TierReadOnly {
		return fmt.Sprintf("field %q is read-only, %s denied", v.Field, v.Action)
	}
	return fmt.Sprintf("field %q is blocked, %s denied", v.Field, v.Action)
}

func (v *Violation) Code() string {
	if v.Tier == TierReadOnly {
		return CodeFieldReadOnly
	}
	return CodeFieldBlocked
}

func IsViolation(err error) bool {
	_, ok := errors.AsType[*Violation](err)
	return ok
}

func AsViolation(err error) (*Violation, bool) {
	return errors.AsType[*Violation](err)
}

// Registry maps field names to access tiers. It is immutable after
// construction and safe for concurrent use without locking.
type Registry struct {
	tiers map[string]Tier
}

func New(blocked []string, readOnly []string) (*Registry, error) {
	tiers := make(map[string]Tier, len(blocked)+len(readOnly))
	for _, raw := range blocked {
		field := strings.TrimSpace(raw)
		if field == "" {
			continue
		}
		tiers[field] = TierBlocked
	}
	for _, raw := range readOnly {
		field := strings.TrimSpace(raw)
		if field == "" {
			continue
		}
		if _, ok := tiers[field]; ok {
			return nil, fmt.Errorf("fieldpolicy: field %q registered in more than one tier", field)
		}
		tiers[field] = TierReadOnly
	}
	return &Registry{tiers: tiers}, nil
}

func (r *Registry) Tier(field string) Tier {
	if tier, ok := r.tiers[strings.TrimSpace(field)]; ok {
		return tier
	}
	return TierOpen
}

// Check answers whether action is permitted on field. BLOCKED denies
// every action with no override path. READ_ONLY permits read only.
// Fields absent from the registry are OPEN.
func (r *Registry) Check(field string, action Action) error {
	switch action {
	case ActionRead, ActionWrite, ActionDelete:
	default:
		return fmt.Errorf("fieldpolicy: unknown action %q", action)
	}

	field = strings.TrimSpace(field)
	switch r.Tier(field) {
	case TierBlocked:
		return &Violation{Field: field, Action: action, Tier: TierBlocked}
	case TierReadOnly:
		if action == ActionRead {
			return nil
		}
		return &Violation{Field: field, Action: action, Tier: TierReadOnly}
	default:
		return nil
	}
}

// CheckAll checks every field in declaration order and fails fast on
// the first violation, so an operation touching many fields either
// passes whole or reports the first offender deterministically.
func (r *Registry) CheckAll(fields []string, action Action) error {
	for _, field := range fields {
		if err := r.Check(field, action); err != nil {
			return err
		}
	}
	return nil
}

type Snapshot struct {
	Blocked  []string `json:"blocked"`
	ReadOnly []string `json:"read_only"`
}

func (r *Registry) Snapshot() Snapshot {
	out := Snapshot{Blocked: []string{}, ReadOnly: []string{}}
	for field, tier := range r.tiers {
		switch tier {
		case TierBlocked:
			out.Blocked = append(out.Blocked, field)
		case TierReadOnly:
			out.ReadOnly = append(out.ReadOnly, field)
		}
	}
	sort.Strings(out.Blocked)
	sort.Strings(out.ReadOnly)
	return out
}
