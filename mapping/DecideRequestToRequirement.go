package mapping

import (
	"fmt"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
)

// MapDecideRequestToRequirement converts a remote decision request to a
// guard requirement. Only the action is mandatory; every constraint
// dimension left empty stays vacuously satisfied, exactly as for local
// callers.
func MapDecideRequestToRequirement(i *protocol.DecideRequest) (auth.Requirement, error) {
	if i.Action == "" {
		return auth.Requirement{}, fmt.Errorf("action is required")
	}
	o := auth.Requirement{
		Action: i.Action,
		Scope: auth.Scope{
			FamilyID: i.FamilyID,
			ChildID:  i.ChildID,
		},
		RequireAll:  i.RequireAll,
		RequireBoth: i.RequireBoth,
	}
	for _, r := range i.Roles {
		o.Roles = append(o.Roles, models.Role(r))
	}
	for _, p := range i.Permissions {
		o.Permissions = append(o.Permissions, models.Permission(p))
	}
	for _, p := range i.RolePermissions {
		o.RolePermissions = append(o.RolePermissions, models.Permission(p))
	}
	for _, p := range i.PrivacyPermissions {
		o.PrivacyPermissions = append(o.PrivacyPermissions, models.Permission(p))
	}
	return o, nil
}

// MapDecisionToProtocol converts a guard decision to its API exposable form.
func MapDecisionToProtocol(i *auth.Decision) protocol.Decision {
	o := protocol.Decision{}
	o.Allowed = i.Allowed
	o.Reason = string(i.Reason)
	o.Effective = MapEffectivePermissionsToProtocol(&i.Effective)
	return o
}

// MapEffectivePermissionsToProtocol converts a resolved permission picture
// to its API exposable form.
func MapEffectivePermissionsToProtocol(i *auth.EffectivePermissions) protocol.EffectivePermissions {
	o := protocol.EffectivePermissions{}
	o.HasMembership = i.HasMembership
	o.Role = string(i.Role)
	o.RolePermissions = i.RolePermissions.Strings()
	o.GrantPermissions = i.GrantPermissions.Strings()
	o.Permissions = i.Union().Strings()
	return o
}
