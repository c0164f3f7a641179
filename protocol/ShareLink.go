package protocol

import "time"

// ShareLink is the API rendering of a magic link. The bearer token itself
// appears only in the response to the create call; listings never carry it.
type ShareLink struct {
	// ID is the unique identifier for the link
	ID string `json:"id"`
	// Token is the bearer credential, present only at creation
	Token string `json:"token,omitempty"`
	// FamilyID scopes the link to one family
	FamilyID string `json:"familyId"`
	// ChildID narrows the link to a single child when set
	ChildID string `json:"childId,omitempty"`
	// ProviderName is the display name of the intended recipient
	ProviderName string `json:"providerName,omitempty"`
	// ProviderEmail is the address the link was issued to
	ProviderEmail string `json:"providerEmail,omitempty"`
	// Permissions are the verbs conferred on the bearer
	Permissions []string `json:"permissions"`
	// State is the link's standing as of the request: active, deactivated,
	// expired, or access_limit_reached
	State string `json:"state"`
	// ExpiresAt is the instant from which the link no longer validates
	ExpiresAt time.Time `json:"expiresAt"`
	// MaxAccessCount caps successful uses; zero means unlimited
	MaxAccessCount int64 `json:"maxAccessCount,omitempty"`
	// AccessCount is the number of successful uses so far
	AccessCount int64 `json:"accessCount"`
	// RemainingAccesses is how many uses remain; -1 when uncapped
	RemainingAccesses int64 `json:"remainingAccesses"`
	// LastAccessed is the most recent successful use, if any
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	// CreatedDate is when the link was issued
	CreatedDate time.Time `json:"createdDate"`
	// CreatedBy is the principal that issued the link
	CreatedBy string `json:"createdBy"`
}
