package server

import (
	"context"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// sealExport wraps a caller-supplied payload in a transmission envelope
// bound to the service master key. The payload is opaque here; what is
// guarded is the act of exporting family data at all. Without a configured
// master key both export endpoints are disabled.
func (h AppServer) sealExport(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)

	if h.MasterKey == "" {
		return NewAppError(http.StatusServiceUnavailable, nil, "export endpoints are disabled: no master key configured")
	}

	if !util.IsApplicationJSON(r.Header.Get("Content-Type")) {
		return NewAppError(http.StatusBadRequest, nil, "expected header Content-Type: application/json")
	}
	var request protocol.SealExportRequest
	if err := util.FullDecode(r.Body, &request); err != nil {
		return NewAppError(http.StatusBadRequest, err, "unable to decode export from JSON body")
	}
	if request.FamilyID == "" {
		return NewAppError(http.StatusBadRequest, nil, "familyId is required")
	}
	if len(request.Payload) == 0 {
		return NewAppError(http.StatusBadRequest, nil, "payload is required")
	}

	requirement := auth.Requirement{
		Action:      "export.seal",
		Scope:       auth.Scope{FamilyID: request.FamilyID},
		Permissions: []models.Permission{models.PermissionExport},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	envelope, err := h.Crypto.Seal(request.Payload, h.MasterKey)
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "error sealing export")
	}
	return jsonResponse(w, http.StatusOK, protocol.SealExportResponse{Envelope: envelope})
}
