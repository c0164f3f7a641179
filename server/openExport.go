package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// openExport opens a transmission envelope this service sealed earlier.
// Freshness is enforced before any integrity work, so a stale envelope is
// gone regardless of whether it verifies. A failed integrity check is logged
// loudly as possible tampering but answers the caller with the same terse
// machine-readable reason as every other denial.
func (h AppServer) openExport(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)
	logger := LoggerFromContext(ctx)

	if h.MasterKey == "" {
		return NewAppError(http.StatusServiceUnavailable, nil, "export endpoints are disabled: no master key configured")
	}

	if !util.IsApplicationJSON(r.Header.Get("Content-Type")) {
		return NewAppError(http.StatusBadRequest, nil, "expected header Content-Type: application/json")
	}
	var request protocol.OpenExportRequest
	if err := util.FullDecode(r.Body, &request); err != nil {
		return NewAppError(http.StatusBadRequest, err, "unable to decode envelope from JSON body")
	}
	if request.FamilyID == "" {
		return NewAppError(http.StatusBadRequest, nil, "familyId is required")
	}

	requirement := auth.Requirement{
		Action:      "export.open",
		Scope:       auth.Scope{FamilyID: request.FamilyID},
		Permissions: []models.Permission{models.PermissionExport},
	}
	if _, herr := h.requireAllowed(ctx, principalFromCaller(caller), requirement); herr != nil {
		return herr
	}

	payload, err := h.Crypto.Open(request.Envelope, h.MasterKey)
	if err != nil {
		switch {
		case errors.Is(err, crypto.ErrPayloadExpired):
			return herrForDenial(models.DenialPayloadExpired, err)
		case errors.Is(err, crypto.ErrIntegrityCheckFailed):
			logger.Error("envelope failed integrity check",
				zap.String("family", request.FamilyID),
				zap.String("principal", caller.UserID))
			return herrForDenial(models.DenialIntegrityCheckFailed, err)
		case errors.Is(err, crypto.ErrDecryptionFailed):
			return herrForDenial(models.DenialDecryptionFailed, err)
		default:
			return NewAppError(http.StatusInternalServerError, err, "error opening envelope")
		}
	}
	return jsonResponse(w, http.StatusOK, protocol.OpenExportResponse{Payload: payload})
}
