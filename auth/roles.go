package auth

import (
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// rolePermissions is the authoritative role table. Every permission a role
// confers is listed here; nothing else in the system widens a role. Changing
// a row changes what every member holding that role can do.
var rolePermissions = map[models.Role]models.PermissionSet{
	models.RoleAdmin: models.NewPermissionSet(
		models.PermissionRead,
		models.PermissionWrite,
		models.PermissionDelete,
		models.PermissionManageUsers,
		models.PermissionInviteUsers,
		models.PermissionExport,
		models.PermissionManageSettings,
		models.PermissionViewAnalytics,
	),
	models.RoleParent: models.NewPermissionSet(
		models.PermissionRead,
		models.PermissionWrite,
		models.PermissionDelete,
		models.PermissionInviteUsers,
		models.PermissionExport,
		models.PermissionViewAnalytics,
	),
	models.RoleCaregiver: models.NewPermissionSet(
		models.PermissionRead,
		models.PermissionWrite,
		models.PermissionViewAnalytics,
	),
	models.RoleViewer: models.NewPermissionSet(
		models.PermissionRead,
	),
}

// PermissionsForRole returns a copy of the base permission set conferred by a
// role. Unknown roles confer nothing, which is not an error; the caller fails
// closed on the empty set.
func PermissionsForRole(role models.Role) models.PermissionSet {
	base, ok := rolePermissions[role]
	if !ok {
		return models.PermissionSet{}
	}
	return base.Copy()
}

// KnownRoles returns the roles understood by the registry.
func KnownRoles() []models.Role {
	return []models.Role{models.RoleAdmin, models.RoleParent, models.RoleCaregiver, models.RoleViewer}
}
