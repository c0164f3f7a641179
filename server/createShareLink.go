package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// createShareLink issues a magic link granting an outside provider scoped,
// time boxed access to a family's records. Issuing requires the parent role
// and the invite_users permission in the target family. The plaintext token
// appears only in this response and is never retrievable again.
func (h AppServer) createShareLink(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	if !util.IsApplicationJSON(r.Header.Get("Content-Type")) {
		return NewAppError(http.StatusBadRequest, nil, "expected header Content-Type: application/json")
	}
	var request protocol.CreateShareLinkRequest
	if err := util.FullDecode(r.Body, &request); err != nil {
		return NewAppError(http.StatusBadRequest, err, "unable to decode share link from JSON body")
	}

	requirement := auth.Requirement{
		Action:      "share.create",
		Scope:       auth.Scope{FamilyID: request.FamilyID, ChildID: request.ChildID},
		Roles:       []models.Role{models.RoleParent},
		Permissions: []models.Permission{models.PermissionInviteUsers},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	defaultTTL := time.Duration(h.ShareDefaults.TTL) * time.Hour
	input, err := mapping.MapCreateShareLinkRequestToCreateInput(&request, caller.UserID, time.Now().UTC(), defaultTTL)
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, err.Error())
	}
	if input.MaxAccessCount == 0 {
		input.MaxAccessCount = h.ShareDefaults.MaxAccesses
	}

	link, err := h.Links.Create(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, capability.ErrInvalidInput):
			return NewAppError(http.StatusBadRequest, err, "invalid share link parameters")
		case errors.Is(err, capability.ErrSealingUnavailable):
			return NewAppError(http.StatusBadRequest, err, "notes cannot be attached because no sealing secret is configured")
		default:
			return NewAppError(http.StatusInternalServerError, err, "error storing share link")
		}
	}

	return jsonResponse(w, http.StatusCreated, mapping.MapCreatedMagicLinkToShareLink(&link, time.Now().UTC()))
}
