package audit

import (
	"context"

	"github.com/act-community/steward/modules/contacts/services"
)

// Sink feeds guarded-store events into the trail, attributing each
// entry to the actor carried on the context.
type Sink struct {
	log *Log
}

func NewSink(log *Log) *Sink { return &Sink{log: log} }

func (s *Sink) Record(ctx context.Context, event services.AuditEvent) error {
	return s.log.Record(Entry{
		Actor:    ActorFrom(ctx),
		Kind:     event.Kind,
		RecordID: event.RecordID,
		Field:    event.Field,
		Action:   event.Action,
		Decision: event.Decision,
		Reason:   event.Reason,
	})
}
