package events

import "encoding/json"

// Event defines a type that can yield itself as JSON bytes and describe
// itself to publish-action filters.
type Event interface {
	Yield() []byte
	EventAction() string
	IsSuccessful() bool
}

// AccessEvent is the global event model for access decisions published to
// the event stream. One event mirrors one durable audit entry; consumers
// downstream drive compliance reporting and anomaly detection from it.
type AccessEvent struct {
	ID                  string   `json:"id"`
	SchemaVersion       string   `json:"schema_version"`
	EventType           string   `json:"event_type"`
	Action              string   `json:"action"`
	Timestamp           int64    `json:"timestamp"`
	SystemIP            string   `json:"system_ip"`
	XForwardedForIP     string   `json:"x_forwarded_for_ip,omitempty"`
	SessionID           string   `json:"session_id,omitempty"`
	PrincipalID         string   `json:"principal_id,omitempty"`
	FamilyID            string   `json:"family_id,omitempty"`
	ChildID             string   `json:"child_id,omitempty"`
	Allowed             bool     `json:"allowed"`
	Reason              string   `json:"reason,omitempty"`
	RequiredRoles       []string `json:"required_roles,omitempty"`
	RequiredPermissions []string `json:"required_permissions,omitempty"`
}

// Yield satisfies the Event interface.
func (e AccessEvent) Yield() []byte {
	b, _ := json.Marshal(e)
	return b
}

// EventAction satisfies the Event interface.
func (e AccessEvent) EventAction() string {
	return e.Action
}

// IsSuccessful satisfies the Event interface. A denied decision is still a
// successfully made decision; this reports the decision outcome so publish
// filters can select denials specifically.
func (e AccessEvent) IsSuccessful() bool {
	return e.Allowed
}
