package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// accessShareLink validates a presented share token and spends one access.
// The token is the entire credential; no account or identity headers are
// involved. Every attempt is recorded before the response leaves, and a
// denial never reveals whether the token ever existed.
func (h AppServer) accessShareLink(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	logger := LoggerFromContext(ctx)
	sessionID := SessionIDFromContext(ctx)

	captured, ok := CaptureGroupsFromContext(ctx)
	if !ok || captured["token"] == "" {
		return NewAppError(http.StatusBadRequest, nil, "could not extract token from URI")
	}

	consumption, consumeErr := h.Links.ValidateAndConsume(ctx, captured["token"])
	reason := capability.ReasonFor(consumeErr)

	// This path bypasses the guard since there is no principal, so it
	// carries the audit obligation itself. An unrecorded access never
	// reaches the caller.
	entry := models.AuditEntry{
		ID:         uuid.New().String(),
		RecordedAt: time.Now().UTC(),
		SessionID:  sessionID,
		Action:     "share.access",
		Allowed:    consumeErr == nil,
		Reason:     string(reason),
	}
	if consumeErr == nil {
		entry.FamilyID = sql.NullString{String: consumption.Link.FamilyID, Valid: consumption.Link.FamilyID != ""}
		entry.ChildID = consumption.Link.ChildID
	}
	if err := h.Auditor.Record(ctx, entry); err != nil {
		logger.Error("share access could not be recorded", zap.Error(err))
		return NewAppError(http.StatusBadGateway, err, "decision could not be recorded")
	}

	if consumeErr != nil {
		return herrForDenial(reason, consumeErr)
	}
	return jsonResponse(w, http.StatusOK, mapping.MapConsumptionToShareAccessResponse(&consumption))
}
