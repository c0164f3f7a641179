package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a list of strings as a JSON array in a single column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}
}

// AuditEntry is the durable record of one access decision. Every call to the
// guard produces exactly one entry, allow or deny, before the decision is
// returned to the caller.
type AuditEntry struct {
	// ID is the unique identifier for the entry
	ID string `db:"id"`
	// RecordedAt is when the decision was made
	RecordedAt time.Time `db:"recordedAt"`
	// SessionID correlates entries emitted while serving one request
	SessionID string `db:"sessionId"`
	// PrincipalID is the subject of the decision; empty when unauthenticated
	PrincipalID string `db:"principalId"`
	// FamilyID is the family scope of the decision, when one applied
	FamilyID sql.NullString `db:"familyId"`
	// ChildID is the child scope of the decision, when one applied
	ChildID sql.NullString `db:"childId"`
	// Action names the operation that was gated
	Action string `db:"action"`
	// Allowed records the outcome
	Allowed bool `db:"allowed"`
	// Reason is the machine-readable denial reason, empty on allow
	Reason string `db:"reason"`
	// RequiredRoles lists the role constraint that was evaluated
	RequiredRoles StringList `db:"requiredRoles"`
	// RequiredPermissions lists the permission constraints that were evaluated
	RequiredPermissions StringList `db:"requiredPermissions"`
	// SystemIP identifies the host that made the decision
	SystemIP string `db:"systemIp"`
}
