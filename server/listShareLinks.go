package server

import (
	"context"
	"net/http"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// listShareLinks returns the family's share links with their derived state.
// Tokens are never included; a link's token exists in a response exactly once,
// at creation. Listing requires the read permission in the family.
func (h AppServer) listShareLinks(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	familyID := r.URL.Query().Get("family")
	if familyID == "" {
		return NewAppError(http.StatusBadRequest, nil, "family query parameter is required")
	}

	requirement := auth.Requirement{
		Action:      "share.list",
		Scope:       auth.Scope{FamilyID: familyID},
		Permissions: []models.Permission{models.PermissionRead},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	links, err := h.RootDAO.ListMagicLinksByFamily(ctx, familyID)
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "error listing share links")
	}
	return jsonResponse(w, http.StatusOK, mapping.MapMagicLinksToShareLinks(links, time.Now().UTC()))
}
