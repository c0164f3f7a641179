package server

import (
	"context"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// getEffectivePermissions returns the resolved permission view for a
// principal in a family, optionally narrowed to one child. With no principal
// parameter the caller inspects themselves. Results may be served from the
// short-lived permission cache; mutations to grants and memberships drop the
// affected principal's entries.
func (h AppServer) getEffectivePermissions(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	familyID := r.URL.Query().Get("family")
	if familyID == "" {
		return NewAppError(http.StatusBadRequest, nil, "family query parameter is required")
	}
	childID := r.URL.Query().Get("child")
	target := r.URL.Query().Get("principal")
	if target == "" {
		target = caller.UserID
	}

	requirement := auth.Requirement{
		Action:      "permissions.view",
		Scope:       auth.Scope{FamilyID: familyID, ChildID: childID},
		Permissions: []models.Permission{models.PermissionRead},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	effective, err := h.cachedResolve(ctx, auth.Principal{ID: target, SessionID: caller.SessionID}, auth.Scope{FamilyID: familyID, ChildID: childID})
	if err != nil {
		return herrForDenial(models.DenialCollaboratorUnavailable, err)
	}
	return jsonResponse(w, http.StatusOK, mapping.MapEffectivePermissionsToProtocol(&effective))
}
