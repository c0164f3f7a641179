package protocol

// UpsertPrivacyGrantRequest writes the per-child exception for a grantee.
// Repeating the call for the same child and grantee replaces the permission
// set wholesale.
type UpsertPrivacyGrantRequest struct {
	// FamilyID identifies the family the child belongs to; the caller must
	// hold grant management rights in this family
	FamilyID string `json:"familyId"`
	// ChildID identifies the child whose records the grant covers
	ChildID string `json:"childId"`
	// GranteeID identifies the principal receiving the extra permissions
	GranteeID string `json:"granteeId"`
	// Permissions are the verbs to grant; the set must not be empty
	Permissions []string `json:"permissions"`
}
