package auth

import (
	"context"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// Error is the type of all sentinel errors raised by this package.
type Error string

// Error implements the error interface for Error.
func (e Error) Error() string {
	return string(e)
}

const (
	// ErrUnauthenticated occurs when a decision is requested for a principal
	// with no identity.
	ErrUnauthenticated Error = "auth: principal is not authenticated"
	// ErrInsufficientRole occurs when the principal's role does not satisfy
	// the role constraint of a requirement.
	ErrInsufficientRole Error = "auth: principal role does not satisfy the requirement"
	// ErrInsufficientPermission occurs when the principal's effective
	// permissions do not satisfy the permission constraint of a requirement.
	ErrInsufficientPermission Error = "auth: effective permissions do not satisfy the requirement"
	// ErrCollaboratorUnavailable occurs when stored access records cannot be
	// read. The caller must treat this as a denial, never an allowance.
	ErrCollaboratorUnavailable Error = "auth: access records could not be read"
	// ErrAuditUnavailable occurs when a decision cannot be durably recorded.
	// The decision it accompanies is always a denial.
	ErrAuditUnavailable Error = "auth: decision could not be recorded"
)

// Principal identifies the caller a decision concerns. An empty ID means the
// caller never authenticated.
type Principal struct {
	// ID is the stable identifier of the authenticated user
	ID string
	// SessionID correlates audit entries emitted while serving one request
	SessionID string
}

// Scope locates the family, and optionally the single child, that a
// requirement applies to.
type Scope struct {
	FamilyID string
	ChildID  string
}

// GrantSource supplies the stored access records behind permission
// resolution. The production implementation is the DAO; tests use the fake in
// this package.
type GrantSource interface {
	// FamilyAccessForPrincipal returns the principal's membership row for the
	// family. The boolean is false when no membership exists, which is an
	// ordinary outcome rather than an error.
	FamilyAccessForPrincipal(ctx context.Context, principalID string, familyID string) (models.FamilyAccess, bool, error)
	// PrivacyGrantsForGrantee returns every privacy grant naming the grantee
	// for the given child.
	PrivacyGrantsForGrantee(ctx context.Context, granteeID string, childID string) ([]models.PrivacyGrant, error)
}

// Auditor records access decisions. Recording happens before any decision is
// returned to the caller, and a recording failure converts the decision to a
// denial.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}
