package models

import (
	"database/sql"
	"time"
)

// MagicLinkState describes a link's standing at a point in time. Only the
// active flag and the access counters persist; Expired and AccessLimitReached
// are derived against a supplied clock when the link is read.
type MagicLinkState string

const (
	MagicLinkActive             MagicLinkState = "active"
	MagicLinkDeactivated        MagicLinkState = "deactivated"
	MagicLinkExpired            MagicLinkState = "expired"
	MagicLinkAccessLimitReached MagicLinkState = "access_limit_reached"
)

// MagicLink is a bearer capability granting a healthcare provider scoped,
// time-boxed access to a family's records without an account. The token is
// the entire credential; anyone presenting it receives exactly the link's
// permission set while the link remains valid.
type MagicLink struct {
	CommonMeta
	// Token is the opaque secret presented by the bearer
	Token string `db:"token"`
	// FamilyID scopes the link to one family
	FamilyID string `db:"familyId"`
	// ChildID optionally narrows the link to a single child
	ChildID sql.NullString `db:"childId"`
	// ProviderName is the display name of the intended recipient
	ProviderName string `db:"providerName"`
	// ProviderEmail is the address the link was issued to
	ProviderEmail string `db:"providerEmail"`
	// Permissions are the verbs conferred on the bearer
	Permissions PermissionSet `db:"permissions"`
	// ExpiresAt is the instant from which the link no longer validates
	ExpiresAt time.Time `db:"expiresAt"`
	// MaxAccessCount caps successful consumptions when set; null is unlimited
	MaxAccessCount sql.NullInt64 `db:"maxAccessCount"`
	// AccessCount is the number of successful consumptions so far
	AccessCount int64 `db:"accessCount"`
	// LastAccessed records the most recent successful consumption
	LastAccessed sql.NullTime `db:"lastAccessed"`
	// IsActive is cleared by deactivation and never set back
	IsActive bool `db:"isActive"`
	// EncryptedNotes holds the issuer's note to the provider, sealed at rest
	EncryptedNotes sql.NullString `db:"encryptedNotes"`
}

// State derives the link's standing at the given instant. Deactivation wins
// over expiry, and expiry wins over the access limit, so a link reports the
// most permanent applicable reason.
func (m MagicLink) State(now time.Time) MagicLinkState {
	switch {
	case !m.IsActive:
		return MagicLinkDeactivated
	case !now.Before(m.ExpiresAt):
		return MagicLinkExpired
	case m.MaxAccessCount.Valid && m.AccessCount >= m.MaxAccessCount.Int64:
		return MagicLinkAccessLimitReached
	default:
		return MagicLinkActive
	}
}

// RemainingAccesses returns how many consumptions remain, or -1 when the link
// is uncapped.
func (m MagicLink) RemainingAccesses() int64 {
	if !m.MaxAccessCount.Valid {
		return -1
	}
	remaining := m.MaxAccessCount.Int64 - m.AccessCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
