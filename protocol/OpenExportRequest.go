package protocol

import (
	"encoding/json"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
)

// OpenExportRequest asks the service to open a transmission envelope it
// sealed earlier. Envelopes past the freshness window are refused regardless
// of integrity.
type OpenExportRequest struct {
	// FamilyID is the family whose data the envelope carries; the export
	// permission is decided within this scope
	FamilyID string `json:"familyId"`
	// Envelope is the sealed transmission envelope
	Envelope crypto.Envelope `json:"envelope"`
}

// OpenExportResponse returns the recovered payload.
type OpenExportResponse struct {
	Payload json.RawMessage `json:"payload"`
}
