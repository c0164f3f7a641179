package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/mapping"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// decide runs one access decision on behalf of a sibling service and returns
// it. The decision itself is the payload: a denial is still a 200 here, with
// the reason inside, since the remote caller asked a question and got an
// answer. Only an unrecordable decision is an error, because an allowance
// that cannot be audited must never be acted on.
func (h AppServer) decide(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)
	if !protocolCaller(caller).Authenticated() {
		return herrForDenial(models.DenialUnauthenticated, nil)
	}

	if !util.IsApplicationJSON(r.Header.Get("Content-Type")) {
		return NewAppError(http.StatusBadRequest, nil, "expected header Content-Type: application/json")
	}
	var request protocol.DecideRequest
	if err := util.FullDecode(r.Body, &request); err != nil {
		return NewAppError(http.StatusBadRequest, err, "unable to decode decision request from JSON body")
	}

	requirement, err := mapping.MapDecideRequestToRequirement(&request)
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, err.Error())
	}

	subject := auth.Principal{ID: request.PrincipalID, SessionID: caller.SessionID}
	decision, err := h.Guard.Decide(ctx, subject, requirement)
	if err != nil {
		if errors.Is(err, auth.ErrAuditUnavailable) {
			return NewAppError(http.StatusBadGateway, err, "decision could not be recorded")
		}
		return NewAppError(http.StatusBadGateway, err, "decision failed")
	}
	return jsonResponse(w, http.StatusOK, mapping.MapDecisionToProtocol(&decision))
}
