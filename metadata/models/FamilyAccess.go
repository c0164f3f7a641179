package models

// Family membership statuses. Only an active membership confers its role;
// invited and revoked rows are retained for history but contribute nothing to
// permission resolution.
const (
	AccessStatusInvited = "invited"
	AccessStatusActive  = "active"
	AccessStatusRevoked = "revoked"
)

// FamilyAccess is a membership row binding a principal to a family with a
// role. A principal holds at most one membership per family.
type FamilyAccess struct {
	CommonMeta
	// FamilyID identifies the family the membership applies to
	FamilyID string `db:"familyId"`
	// PrincipalID identifies the member
	PrincipalID string `db:"principalId"`
	// Role held within the family while the membership is active
	Role Role `db:"role"`
	// Status is one of invited, active, revoked
	Status string `db:"status"`
}

// Conferring reports whether the membership currently confers its role.
func (fa FamilyAccess) Conferring() bool {
	return fa.Status == AccessStatusActive
}
