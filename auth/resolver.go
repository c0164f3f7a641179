package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// EffectivePermissions is the outcome of resolving a principal within a
// scope: the role they hold there, the permissions that role confers, and the
// extra permissions privacy grants add for the scoped child. The two
// component sets stay separate so requirements can constrain them
// independently.
type EffectivePermissions struct {
	// HasMembership is true when the principal holds an active membership in
	// the scoped family
	HasMembership bool
	// Role is the membership role, empty without a membership
	Role models.Role
	// RolePermissions is the base set conferred by Role
	RolePermissions models.PermissionSet
	// GrantPermissions is the union of privacy grant sets for the scoped child
	GrantPermissions models.PermissionSet
}

// Union returns the full effective set, role and grant permissions combined.
// Grants only ever widen the result.
func (ep EffectivePermissions) Union() models.PermissionSet {
	return ep.RolePermissions.Union(ep.GrantPermissions)
}

// Resolver computes effective permission sets from stored access records. It
// never mutates state; resolving the same principal and scope twice against
// unchanged records yields the same result.
type Resolver struct {
	source GrantSource
	logger *zap.Logger
}

// NewResolver returns a Resolver reading from the given source. A nil logger
// is replaced with a no-op logger.
func NewResolver(source GrantSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, logger: logger}
}

// ResolveEffective computes the principal's effective permissions within the
// scope. An absent or non-active membership contributes nothing; privacy
// grants are consulted only when the scope names a child. Any read failure
// resolves to nothing usable and the error is returned for the caller to
// treat as a denial.
func (r *Resolver) ResolveEffective(ctx context.Context, principal Principal, scope Scope) (EffectivePermissions, error) {
	ep := EffectivePermissions{
		RolePermissions:  models.PermissionSet{},
		GrantPermissions: models.PermissionSet{},
	}
	if principal.ID == "" || scope.FamilyID == "" {
		return ep, nil
	}

	access, found, err := r.source.FamilyAccessForPrincipal(ctx, principal.ID, scope.FamilyID)
	if err != nil {
		r.logger.Error("family access lookup failed",
			zap.String("principal", principal.ID),
			zap.String("family", scope.FamilyID),
			zap.Error(err))
		return EffectivePermissions{RolePermissions: models.PermissionSet{}, GrantPermissions: models.PermissionSet{}}, ErrCollaboratorUnavailable
	}
	if found && access.Conferring() {
		ep.HasMembership = true
		ep.Role = access.Role
		ep.RolePermissions = PermissionsForRole(access.Role)
	}

	if scope.ChildID != "" {
		grants, err := r.source.PrivacyGrantsForGrantee(ctx, principal.ID, scope.ChildID)
		if err != nil {
			r.logger.Error("privacy grant lookup failed",
				zap.String("grantee", principal.ID),
				zap.String("child", scope.ChildID),
				zap.Error(err))
			return EffectivePermissions{RolePermissions: models.PermissionSet{}, GrantPermissions: models.PermissionSet{}}, ErrCollaboratorUnavailable
		}
		for _, grant := range grants {
			ep.GrantPermissions = ep.GrantPermissions.Union(grant.Permissions)
		}
	}

	return ep, nil
}
