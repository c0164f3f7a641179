package protocol

// DecideRequest asks for an access decision on behalf of a principal. It is
// the remote form of a guard requirement, used by sibling services that hold
// no access records of their own.
type DecideRequest struct {
	// PrincipalID is the subject of the decision; empty means unauthenticated
	PrincipalID string `json:"principalId"`
	// Action names the operation being gated, for the audit trail
	Action string `json:"action"`
	// FamilyID locates the family under decision
	FamilyID string `json:"familyId,omitempty"`
	// ChildID narrows the decision to a single child
	ChildID string `json:"childId,omitempty"`
	// Roles passes when the principal's role ranks at least one listed role
	Roles []string `json:"roles,omitempty"`
	// Permissions constrains the full effective set
	Permissions []string `json:"permissions,omitempty"`
	// RequireAll demands every listed permission instead of at least one
	RequireAll bool `json:"requireAll,omitempty"`
	// RolePermissions constrains the role-derived set alone
	RolePermissions []string `json:"rolePermissions,omitempty"`
	// PrivacyPermissions constrains the grant-derived set alone
	PrivacyPermissions []string `json:"privacyPermissions,omitempty"`
	// RequireBoth combines the two split dimensions with AND instead of OR
	RequireBoth bool `json:"requireBoth,omitempty"`
}
