package audit

import "context"

// Entry is one line in the hash-chained JSONL audit trail. Fields are
// flat strings so json.Marshal emits a deterministic field order and
// the line hash is reproducible.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts"`
	Actor     string `json:"actor"`
	Kind      string `json:"kind"`
	RecordID  string `json:"record_id,omitempty"`
	Field     string `json:"field,omitempty"`
	Action    string `json:"action,omitempty"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	PrevHash  string `json:"prev_hash"`
}

type actorKey struct{}

// WithActor stamps the authenticated caller onto the context so audit
// entries written further down carry it.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller recorded on the context, or "system"
// when the operation was not attributed.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
