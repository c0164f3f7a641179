package server

import (
	"context"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// deletePrivacyGrant revokes a per-child permission exception. The grant row
// is removed outright; grants are exceptions, not history. Revocation is
// authorized against the family stored on the grant. When the grant is
// already gone the family scope comes from the family query parameter, so a
// repeated revocation by the same caller stays a quiet 204 while an unscoped
// probe still fails closed.
func (h AppServer) deletePrivacyGrant(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	captured, ok := CaptureGroupsFromContext(ctx)
	if !ok || captured["grantId"] == "" {
		return NewAppError(http.StatusBadRequest, nil, "could not extract grantId from URI")
	}
	grantID := captured["grantId"]

	grant, found, err := h.RootDAO.PrivacyGrantByID(ctx, grantID)
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "error retrieving privacy grant")
	}

	scope := auth.Scope{FamilyID: r.URL.Query().Get("family")}
	if found {
		scope = auth.Scope{FamilyID: grant.FamilyID, ChildID: grant.ChildID}
	}
	requirement := auth.Requirement{
		Action:      "grant.delete",
		Scope:       scope,
		Roles:       []models.Role{models.RoleParent},
		Permissions: []models.Permission{models.PermissionManageUsers},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	if found {
		if err := h.RootDAO.DeletePrivacyGrant(ctx, grantID); err != nil {
			return NewAppError(http.StatusInternalServerError, err, "error deleting privacy grant")
		}
		h.dropCachedPermissions(grant.GranteeID)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
