package protocol

import "time"

// PrivacyGrant is the API rendering of a per-child permission exception.
type PrivacyGrant struct {
	// ID is the unique identifier for the grant
	ID string `json:"id"`
	// FamilyID identifies the family the child belongs to
	FamilyID string `json:"familyId"`
	// ChildID identifies the child whose records the grant covers
	ChildID string `json:"childId"`
	// GranteeID identifies the principal receiving the extra permissions
	GranteeID string `json:"granteeId"`
	// GrantedBy identifies the principal that issued the grant
	GrantedBy string `json:"grantedBy"`
	// Permissions are the verbs added on top of the grantee's role set
	Permissions []string `json:"permissions"`
	// CreatedDate is when the grant was first issued
	CreatedDate time.Time `json:"createdDate"`
	// ModifiedDate is when the grant was last replaced
	ModifiedDate time.Time `json:"modifiedDate"`
}
