package protocol

// EffectivePermissions reports what a principal holds within the decided
// scope, split by origin.
type EffectivePermissions struct {
	// HasMembership is true when the principal holds an active membership in
	// the scoped family
	HasMembership bool `json:"hasMembership"`
	// Role is the membership role, empty without a membership
	Role string `json:"role,omitempty"`
	// RolePermissions is the base set conferred by the role
	RolePermissions []string `json:"rolePermissions"`
	// GrantPermissions is the union of privacy grant sets for the scoped child
	GrantPermissions []string `json:"grantPermissions"`
	// Permissions is the full effective set, role and grants combined
	Permissions []string `json:"permissions"`
}

// Decision is the outcome of one access decision. Denials carry a machine
// readable reason from the closed vocabulary.
type Decision struct {
	// Allowed records the outcome
	Allowed bool `json:"allowed"`
	// Reason explains a denial; empty on allow
	Reason string `json:"reason,omitempty"`
	// Effective is the resolved permission picture the decision was made on
	Effective EffectivePermissions `json:"effective"`
}
