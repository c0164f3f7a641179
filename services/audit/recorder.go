// Package audit persists access decisions and forwards them to the event
// stream. The durable write is the compliance gate: a decision whose entry
// cannot be stored is treated as never made, and the guard converts it to a
// denial. Publication to Kafka is fire-and-forget on top of that.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/events"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// Store persists audit entries. The DAO is the production implementation.
type Store interface {
	CreateAuditEntry(ctx context.Context, entry models.AuditEntry) error
}

// Recorder implements the guard's Auditor collaborator.
type Recorder struct {
	store    Store
	queue    events.Publisher
	logger   *zap.Logger
	systemIP string
}

// Opt sets an option on a Recorder.
type Opt func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSystemIP stamps entries and events with the deciding host's address.
func WithSystemIP(ip string) Opt {
	return func(r *Recorder) {
		r.systemIP = ip
	}
}

// NewRecorder returns a Recorder writing through store and publishing to
// queue. A nil queue disables publication but never the durable write.
func NewRecorder(store Store, queue events.Publisher, opts ...Opt) *Recorder {
	r := &Recorder{
		store:  store,
		queue:  queue,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements auth.Auditor. The store write happens first and its
// error propagates; the stream copy follows only after the entry is durable.
func (r *Recorder) Record(ctx context.Context, entry models.AuditEntry) error {
	if entry.SystemIP == "" {
		entry.SystemIP = r.systemIP
	}
	if err := r.store.CreateAuditEntry(ctx, entry); err != nil {
		r.logger.Error("audit entry rejected by store",
			zap.String("action", entry.Action),
			zap.String("principal", entry.PrincipalID),
			zap.Error(err))
		return err
	}
	if r.queue != nil {
		r.queue.Publish(eventFromEntry(entry))
	}
	return nil
}

// eventFromEntry projects a stored entry onto the stream schema.
func eventFromEntry(entry models.AuditEntry) events.AccessEvent {
	recorded := entry.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	e := events.AccessEvent{
		ID:                  entry.ID,
		SchemaVersion:       "1.0",
		EventType:           "tracker-access-event",
		Action:              entry.Action,
		Timestamp:           recorded.Unix(),
		SystemIP:            entry.SystemIP,
		SessionID:           entry.SessionID,
		PrincipalID:         entry.PrincipalID,
		Allowed:             entry.Allowed,
		Reason:              entry.Reason,
		RequiredRoles:       entry.RequiredRoles,
		RequiredPermissions: entry.RequiredPermissions,
	}
	if entry.FamilyID.Valid {
		e.FamilyID = entry.FamilyID.String
	}
	if entry.ChildID.Valid {
		e.ChildID = entry.ChildID.String
	}
	return e
}
