package protocol

// Transaction types assigned to a caller based upon how identity was
// presented.
const (
	TransactionNormal        = "NORMAL"
	TransactionImpersonation = "IMPERSONATION"
	TransactionUnknown       = "UNKNOWN"
)

// Caller provides the identities obtained from specific request headers set
// by the gateway in front of this service.
type Caller struct {
	// UserID holds the value passed in header X-User-Id, the authenticated
	// end user the request is for
	UserID string
	// ExternalSystem holds the value passed in header X-External-System,
	// identifying a sibling service calling on a user's behalf
	ExternalSystem string
	// SessionID correlates audit entries for one request
	SessionID string
	// TransactionType can be either NORMAL, IMPERSONATION, or UNKNOWN
	TransactionType string
}

// Authenticated reports whether the caller carries any user identity at all.
func (caller Caller) Authenticated() bool {
	return caller.UserID != ""
}
