package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// httpStatusForDenial maps the closed denial vocabulary onto response codes.
// Expired things are gone, not forbidden; unreadable records are a gateway
// problem, never an allowance.
func httpStatusForDenial(reason models.DenialReason) int {
	switch reason {
	case models.DenialUnauthenticated:
		return http.StatusUnauthorized
	case models.DenialInsufficientRole, models.DenialInsufficientPermission:
		return http.StatusForbidden
	case models.DenialCapabilityRevoked, models.DenialCapabilityLimitReached:
		return http.StatusForbidden
	case models.DenialCapabilityExpired, models.DenialPayloadExpired:
		return http.StatusGone
	case models.DenialIntegrityCheckFailed, models.DenialDecryptionFailed:
		return http.StatusBadRequest
	case models.DenialCollaboratorUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusForbidden
	}
}

// herrForDenial renders a denial as an AppError whose message is the machine
// readable reason itself, so callers can branch on the body.
func herrForDenial(reason models.DenialReason, err error) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Code:  httpStatusForDenial(reason),
		Error: err,
		Msg:   string(reason),
		File:  file,
		Line:  line,
	}
}

// requireAllowed runs one guard decision and converts any denial to an
// AppError. A nil return means the caller may proceed. The guard has already
// recorded the decision either way; a recording failure surfaces here as a
// bad gateway since an unrecorded allowance must never leave the service.
func (h AppServer) requireAllowed(ctx context.Context, principal auth.Principal, req auth.Requirement) (auth.Decision, *AppError) {
	decision, err := h.Guard.Decide(ctx, principal, req)
	if err != nil {
		if errors.Is(err, auth.ErrAuditUnavailable) {
			return decision, NewAppError(http.StatusBadGateway, err, "decision could not be recorded")
		}
		return decision, NewAppError(http.StatusBadGateway, err, "decision failed")
	}
	if !decision.Allowed {
		return decision, herrForDenial(decision.Reason, nil)
	}
	return decision, nil
}
