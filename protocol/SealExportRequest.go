package protocol

import (
	"encoding/json"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
)

// SealExportRequest asks the service to wrap a payload in a transmission
// envelope for transfer to an external recipient. The payload is carried
// verbatim; the service never interprets it.
type SealExportRequest struct {
	// FamilyID is the family whose data the payload carries; the export
	// permission is decided within this scope
	FamilyID string `json:"familyId"`
	// Payload is the data to seal
	Payload json.RawMessage `json:"payload"`
}

// SealExportResponse returns the sealed envelope. The envelope is only
// openable by this service while it remains within the freshness window.
type SealExportResponse struct {
	Envelope crypto.Envelope `json:"envelope"`
}
