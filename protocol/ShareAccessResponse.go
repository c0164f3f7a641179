package protocol

import "time"

// ShareAccessResponse is what a bearer receives for one successful access
// through a magic link: the scope and permissions conferred, the issuer's
// notes unsealed, and the remaining budget.
type ShareAccessResponse struct {
	// FamilyID is the family the bearer may read
	FamilyID string `json:"familyId"`
	// ChildID narrows access to a single child when set
	ChildID string `json:"childId,omitempty"`
	// Permissions are the verbs conferred for this access
	Permissions []string `json:"permissions"`
	// ProviderName echoes who the link was issued to
	ProviderName string `json:"providerName,omitempty"`
	// Notes is the issuer's message, unsealed for the bearer
	Notes string `json:"notes,omitempty"`
	// ExpiresAt is when the link stops validating
	ExpiresAt time.Time `json:"expiresAt"`
	// AccessCount is the number of successful uses including this one
	AccessCount int64 `json:"accessCount"`
	// RemainingAccesses is how many uses remain; -1 when uncapped
	RemainingAccesses int64 `json:"remainingAccesses"`
}
