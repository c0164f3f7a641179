package protocol

import "time"

// CreateShareLinkRequest asks for a new magic link granting a healthcare
// provider scoped access to a family's records.
type CreateShareLinkRequest struct {
	// FamilyID scopes the link to one family
	FamilyID string `json:"familyId"`
	// ChildID optionally narrows the link to a single child
	ChildID string `json:"childId,omitempty"`
	// ProviderName is the display name of the intended recipient
	ProviderName string `json:"providerName,omitempty"`
	// ProviderEmail is the address the link will be issued to
	ProviderEmail string `json:"providerEmail,omitempty"`
	// Permissions are the verbs the bearer will hold
	Permissions []string `json:"permissions"`
	// ExpiresAt sets the exact expiry; zero defers to ttlHours
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	// TTLHours sets the expiry relative to issuance when expiresAt is not
	// given; zero falls back to the service default
	TTLHours int `json:"ttlHours,omitempty"`
	// MaxAccessCount caps successful uses; zero means unlimited
	MaxAccessCount int64 `json:"maxAccessCount,omitempty"`
	// Notes is a message to the provider, sealed before storage
	Notes string `json:"notes,omitempty"`
}
