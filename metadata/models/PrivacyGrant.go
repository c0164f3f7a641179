package models

// PrivacyGrant is a per-child exception granting a principal permissions
// beyond those conferred by their family role. Grants only ever widen access;
// resolution unions them with role permissions and never subtracts.
type PrivacyGrant struct {
	CommonMeta
	// FamilyID identifies the family the child belongs to. Grant management
	// is authorized against this scope.
	FamilyID string `db:"familyId"`
	// ChildID identifies the child whose records the grant covers
	ChildID string `db:"childId"`
	// GranteeID identifies the principal receiving the extra permissions
	GranteeID string `db:"granteeId"`
	// GrantedBy identifies the principal that issued the grant
	GrantedBy string `db:"grantedBy"`
	// Permissions are the verbs added on top of the grantee's role set
	Permissions PermissionSet `db:"permissions"`
}
