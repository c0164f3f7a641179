package models

// DenialReason is the machine readable explanation attached to a denied
// access decision. The vocabulary is closed; callers branch on these values
// and audit entries store them, so existing values never change meaning.
type DenialReason string

const (
	DenialNone                    DenialReason = ""
	DenialUnauthenticated         DenialReason = "unauthenticated"
	DenialInsufficientRole        DenialReason = "insufficient_role"
	DenialInsufficientPermission  DenialReason = "insufficient_permission"
	DenialCapabilityExpired       DenialReason = "capability_expired"
	DenialCapabilityLimitReached  DenialReason = "capability_limit_reached"
	DenialCapabilityRevoked       DenialReason = "capability_revoked"
	DenialIntegrityCheckFailed    DenialReason = "integrity_check_failed"
	DenialDecryptionFailed        DenialReason = "decryption_failed"
	DenialPayloadExpired          DenialReason = "payload_expired"
	DenialCollaboratorUnavailable DenialReason = "collaborator_unavailable"
)
