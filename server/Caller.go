package server

import (
	"fmt"
	"net/http"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
)

// Caller provides the identities obtained from specific request headers set
// by the gateway in front of this service. The gateway authenticates users;
// this service only decides what they may do.
type Caller struct {
	// UserID holds the value passed in header X-User-Id
	UserID string
	// ExternalSystem holds the value passed in header X-External-System
	ExternalSystem string
	// SessionID correlates log lines and audit entries for one request
	SessionID string
	// TransactionType can be either NORMAL, IMPERSONATION, or UNKNOWN
	TransactionType string
}

// protocolCaller converts the server.Caller type to a protocol.Caller type.
func protocolCaller(caller Caller) protocol.Caller {
	return protocol.Caller{
		UserID:          caller.UserID,
		ExternalSystem:  caller.ExternalSystem,
		SessionID:       caller.SessionID,
		TransactionType: caller.TransactionType,
	}
}

// CallerFromRequest populates a Caller object based upon request headers.
func CallerFromRequest(r *http.Request) Caller {
	var caller Caller
	caller.UserID = r.Header.Get("X-User-Id")
	caller.ExternalSystem = r.Header.Get("X-External-System")
	return caller
}

// ValidateHeaders examines the values picked up from the headers and
// determines if they are valid. A request without any identity passes; the
// guard denies unauthenticated principals where authentication matters, and
// bearer routes carry their credential in the path. Impersonation by an
// external system is only accepted from the whitelist.
func (c *Caller) ValidateHeaders(whitelist []string) error {
	userID := c.UserID
	externalSystem := c.ExternalSystem

	if externalSystem == "" {
		if userID != "" {
			c.TransactionType = protocol.TransactionNormal
		} else {
			c.TransactionType = protocol.TransactionUnknown
		}
		return nil
	}

	c.TransactionType = protocol.TransactionImpersonation
	if userID == "" {
		return fmt.Errorf("unauthorized: external system %s supplied no user to act for", externalSystem)
	}
	if !whitelisted(whitelist, externalSystem) {
		return fmt.Errorf("unauthorized: external system %s is not authorized to impersonate", externalSystem)
	}
	return nil
}

func whitelisted(whitelist []string, externalSystem string) bool {
	for _, allowed := range whitelist {
		if allowed == externalSystem {
			return true
		}
	}
	return false
}
