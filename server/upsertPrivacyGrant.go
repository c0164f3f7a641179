package server

import (
	"context"
	"net/http"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// upsertPrivacyGrant writes a per-child permission exception for a grantee,
// replacing the permission set wholesale when one already exists for the
// pair. Requires the parent role and the manage_users permission in the
// child's family. The grantee's cached permissions are dropped so the new
// set applies on their next resolution.
func (h AppServer) upsertPrivacyGrant(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	if !util.IsApplicationJSON(r.Header.Get("Content-Type")) {
		return NewAppError(http.StatusBadRequest, nil, "expected header Content-Type: application/json")
	}
	var request protocol.UpsertPrivacyGrantRequest
	if err := util.FullDecode(r.Body, &request); err != nil {
		return NewAppError(http.StatusBadRequest, err, "unable to decode privacy grant from JSON body")
	}

	requirement := auth.Requirement{
		Action:      "grant.upsert",
		Scope:       auth.Scope{FamilyID: request.FamilyID, ChildID: request.ChildID},
		Roles:       []models.Role{models.RoleParent},
		Permissions: []models.Permission{models.PermissionManageUsers},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	grant, err := mapping.MapUpsertPrivacyGrantRequestToModel(&request, caller.UserID, time.Now().UTC())
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, err.Error())
	}

	stored, err := h.RootDAO.UpsertPrivacyGrant(ctx, grant)
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "error storing privacy grant")
	}
	h.dropCachedPermissions(stored.GranteeID)

	return jsonResponse(w, http.StatusOK, mapping.MapPrivacyGrantToProtocol(&stored))
}
