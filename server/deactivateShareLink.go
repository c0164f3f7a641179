package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// deactivateShareLink permanently revokes a share link. The link row is kept,
// so repeating the call is a quiet success; there is no way to reactivate.
// Revocation is authorized against the family the link belongs to, which is
// read from the stored link rather than trusted from the request.
func (h AppServer) deactivateShareLink(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	captured, ok := CaptureGroupsFromContext(ctx)
	if !ok || captured["shareId"] == "" {
		return NewAppError(http.StatusBadRequest, nil, "could not extract shareId from URI")
	}
	shareID := captured["shareId"]

	link, err := h.RootDAO.MagicLinkByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewAppError(http.StatusNotFound, nil, "share link does not exist")
		}
		return NewAppError(http.StatusInternalServerError, err, "error retrieving share link")
	}

	requirement := auth.Requirement{
		Action: "share.revoke",
		Scope:  auth.Scope{FamilyID: link.FamilyID, ChildID: link.ChildID.String},
		Roles:  []models.Role{models.RoleParent},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	if err := h.Links.Deactivate(ctx, shareID); err != nil {
		if errors.Is(err, capability.ErrLinkNotFound) {
			return NewAppError(http.StatusNotFound, nil, "share link does not exist")
		}
		return NewAppError(http.StatusInternalServerError, err, "error deactivating share link")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
