package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// Requirement describes what one operation demands of a principal. All
// constraint dimensions are optional; a dimension left empty is vacuously
// satisfied, so the zero Requirement admits any authenticated principal.
type Requirement struct {
	// Action names the gated operation for the audit trail
	Action string
	// Scope locates the family and optionally the child under decision
	Scope Scope
	// Roles passes when the principal's role ranks at least one listed role
	Roles []models.Role
	// Permissions constrains the full effective set, role and grants combined
	Permissions []models.Permission
	// RequireAll demands every listed permission instead of at least one. It
	// applies to Permissions, RolePermissions and PrivacyPermissions alike.
	RequireAll bool
	// RolePermissions constrains the role-derived set alone
	RolePermissions []models.Permission
	// PrivacyPermissions constrains the grant-derived set alone
	PrivacyPermissions []models.Permission
	// RequireBoth combines the two split dimensions with AND instead of OR
	RequireBoth bool
}

// Decision is the outcome of one guard evaluation. Denials are ordinary
// values carrying a machine readable reason, never panics.
type Decision struct {
	Allowed   bool
	Reason    models.DenialReason
	Effective EffectivePermissions
}

// Guard is the single decision function for the access core. Every gated
// operation asks the guard, and the guard records every answer through the
// auditor before returning it.
type Guard struct {
	resolver *Resolver
	auditor  Auditor
	logger   *zap.Logger
	now      func() time.Time
}

// Opt sets an option on a Guard.
type Opt func(*Guard)

// WithLogger sets the guard's logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock overrides the timestamp source for audit entries.
func WithClock(now func() time.Time) Opt {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard returns a Guard deciding against the given resolver and recording
// through the given auditor.
func NewGuard(resolver *Resolver, auditor Auditor, opts ...Opt) *Guard {
	g := &Guard{
		resolver: resolver,
		auditor:  auditor,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide evaluates the requirement for the principal and records the outcome.
// A collaborator failure during resolution denies with
// collaborator_unavailable. A failure to record the audit entry denies and
// returns ErrAuditUnavailable; no decision leaves the guard unrecorded.
func (g *Guard) Decide(ctx context.Context, principal Principal, req Requirement) (Decision, error) {
	decision, resolveErr := g.evaluate(ctx, principal, req)
	if resolveErr != nil {
		g.logger.Error("resolution failed, denying",
			zap.String("action", req.Action),
			zap.String("principal", principal.ID),
			zap.Error(resolveErr))
	}

	entry := models.AuditEntry{
		ID:                  uuid.New().String(),
		RecordedAt:          g.now().UTC(),
		SessionID:           principal.SessionID,
		PrincipalID:         principal.ID,
		FamilyID:            nullString(req.Scope.FamilyID),
		ChildID:             nullString(req.Scope.ChildID),
		Action:              req.Action,
		Allowed:             decision.Allowed,
		Reason:              string(decision.Reason),
		RequiredRoles:       roleStrings(req.Roles),
		RequiredPermissions: requiredPermissionStrings(req),
	}
	if err := g.auditor.Record(ctx, entry); err != nil {
		g.logger.Error("audit record failed, denying",
			zap.String("action", req.Action),
			zap.String("principal", principal.ID),
			zap.Error(err))
		return Decision{Allowed: false, Reason: models.DenialCollaboratorUnavailable}, ErrAuditUnavailable
	}
	return decision, nil
}

// evaluate applies the requirement's dimensions in a fixed order so denial
// reasons are deterministic: authentication, then role, then the combined
// permission constraint, then the split role/privacy constraint.
func (g *Guard) evaluate(ctx context.Context, principal Principal, req Requirement) (Decision, error) {
	if principal.ID == "" {
		return Decision{Reason: models.DenialUnauthenticated}, nil
	}

	ep, err := g.resolver.ResolveEffective(ctx, principal, req.Scope)
	if err != nil {
		return Decision{Reason: models.DenialCollaboratorUnavailable, Effective: ep}, err
	}
	decision := Decision{Effective: ep}

	if len(req.Roles) > 0 && !roleSatisfied(ep, req.Roles) {
		decision.Reason = models.DenialInsufficientRole
		return decision, nil
	}

	if len(req.Permissions) > 0 && !listSatisfied(ep.Union(), req.Permissions, req.RequireAll) {
		decision.Reason = models.DenialInsufficientPermission
		return decision, nil
	}

	if len(req.RolePermissions) > 0 || len(req.PrivacyPermissions) > 0 {
		if !splitSatisfied(ep, req) {
			decision.Reason = models.DenialInsufficientPermission
			return decision, nil
		}
	}

	decision.Allowed = true
	return decision, nil
}

// roleSatisfied passes when the principal's role ranks at least one of the
// listed roles. No membership means no role and the constraint fails.
func roleSatisfied(ep EffectivePermissions, roles []models.Role) bool {
	if !ep.HasMembership {
		return false
	}
	for _, r := range roles {
		if ep.Role.AtLeast(r) {
			return true
		}
	}
	return false
}

func listSatisfied(set models.PermissionSet, perms []models.Permission, requireAll bool) bool {
	if requireAll {
		return set.HasAll(perms)
	}
	return set.HasAny(perms)
}

// splitSatisfied evaluates the role-derived and grant-derived dimensions
// independently, then combines them: AND under RequireBoth, otherwise OR over
// the dimensions actually supplied.
func splitSatisfied(ep EffectivePermissions, req Requirement) bool {
	checkRole := len(req.RolePermissions) > 0
	checkPrivacy := len(req.PrivacyPermissions) > 0

	roleOK := !checkRole || listSatisfied(ep.RolePermissions, req.RolePermissions, req.RequireAll)
	privacyOK := !checkPrivacy || listSatisfied(ep.GrantPermissions, req.PrivacyPermissions, req.RequireAll)

	if req.RequireBoth {
		return roleOK && privacyOK
	}
	if checkRole && checkPrivacy {
		return listSatisfied(ep.RolePermissions, req.RolePermissions, req.RequireAll) ||
			listSatisfied(ep.GrantPermissions, req.PrivacyPermissions, req.RequireAll)
	}
	return roleOK && privacyOK
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func roleStrings(roles []models.Role) models.StringList {
	out := make(models.StringList, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func requiredPermissionStrings(req Requirement) models.StringList {
	out := make(models.StringList, 0, len(req.Permissions)+len(req.RolePermissions)+len(req.PrivacyPermissions))
	for _, p := range req.Permissions {
		out = append(out, string(p))
	}
	for _, p := range req.RolePermissions {
		out = append(out, "role:"+string(p))
	}
	for _, p := range req.PrivacyPermissions {
		out = append(out, "privacy:"+string(p))
	}
	return out
}
