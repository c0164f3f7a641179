// Package capability manages magic links: bearer tokens that give healthcare
// providers scoped, time-boxed access to a family's records without an
// account. The token is the whole credential, so the life cycle here is
// deliberately one-way: links are created active, may be deactivated, and are
// never reactivated.
package capability

import (
	"context"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// Error is the type of all sentinel errors raised by this package.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

const (
	// ErrLinkNotFound occurs when no link matches the presented token or id.
	ErrLinkNotFound Error = "capability: no link matches"
	// ErrCapabilityRevoked occurs when the link was deactivated. It takes
	// precedence over every other denial.
	ErrCapabilityRevoked Error = "capability: link is deactivated"
	// ErrCapabilityExpired occurs when the link's expiry has passed.
	ErrCapabilityExpired Error = "capability: link is expired"
	// ErrCapabilityLimitReached occurs when the link's access budget is
	// spent.
	ErrCapabilityLimitReached Error = "capability: link access limit reached"
	// ErrInvalidInput occurs when link creation is asked for an expiry in
	// the past, a negative access limit, or an empty permission set.
	ErrInvalidInput Error = "capability: invalid link parameters"
	// ErrSealingUnavailable occurs when notes are supplied but no sealing
	// secret was configured.
	ErrSealingUnavailable Error = "capability: notes sealing is not configured"
)

// ReasonFor maps a capability denial to the shared audit vocabulary. Errors
// outside the denial taxonomy map to collaborator_unavailable since the
// caller could not validate the link.
func ReasonFor(err error) models.DenialReason {
	switch err {
	case nil:
		return models.DenialNone
	case ErrCapabilityRevoked, ErrLinkNotFound:
		return models.DenialCapabilityRevoked
	case ErrCapabilityExpired:
		return models.DenialCapabilityExpired
	case ErrCapabilityLimitReached:
		return models.DenialCapabilityLimitReached
	default:
		return models.DenialCollaboratorUnavailable
	}
}

// ConsumeResult reports the outcome of one atomic consume attempt.
type ConsumeResult struct {
	// Consumed is true when the attempt incremented the counter
	Consumed bool
	// AccessCount is the stored counter after the attempt
	AccessCount int64
}

// Persister is the storage collaborator behind the manager. The production
// implementation is the DAO; the fake in this package backs tests.
//
// ConsumeMagicLink must be a single atomic compare-and-increment: it succeeds
// only while the link is active and under its access limit, and two
// concurrent calls can never both spend the last remaining access. Missing
// rows surface as database/sql.ErrNoRows from every method.
type Persister interface {
	CreateMagicLink(ctx context.Context, link models.MagicLink) (models.MagicLink, error)
	MagicLinkByID(ctx context.Context, id string) (models.MagicLink, error)
	MagicLinkByToken(ctx context.Context, token string) (models.MagicLink, error)
	ConsumeMagicLink(ctx context.Context, id string, now time.Time) (ConsumeResult, error)
	SetMagicLinkActive(ctx context.Context, id string, active bool) error
}
