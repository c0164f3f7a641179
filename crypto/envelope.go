package crypto

import "time"

// MaxEnvelopeAge is the freshness window for transmission envelopes. An
// envelope older than this is rejected before any integrity work, even when
// its contents would otherwise verify.
const MaxEnvelopeAge = 300 * time.Second

// envelopeVersion identifies the sealing layout for future migrations.
const envelopeVersion = 2

// sessionKeyLength gives roughly 285 bits of session key entropy at six bits
// per alphanumeric character.
const sessionKeyLength = 48

// Envelope wraps a payload for transmission across a trust boundary. Each
// envelope carries its own single-use session key, sealed under the
// recipient secret, so the recipient secret itself never encrypts bulk
// payload data and the session key never travels in the clear.
type Envelope struct {
	Version   int              `json:"version"`
	Payload   EncryptedPayload `json:"payload"`
	SealedKey EncryptedPayload `json:"sealedKey"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Seal produces a transmission envelope for plaintext under the given
// secret. A fresh session key encrypts the payload; the secret seals only
// the session key.
func (e *Engine) Seal(plaintext []byte, secret string) (Envelope, error) {
	sessionKey, err := e.GenerateSecureToken(sessionKeyLength)
	if err != nil {
		return Envelope{}, err
	}
	payload, err := e.Encrypt(plaintext, sessionKey)
	if err != nil {
		return Envelope{}, err
	}
	sealedKey, err := e.Encrypt([]byte(sessionKey), secret)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Version:   envelopeVersion,
		Payload:   payload,
		SealedKey: sealedKey,
		CreatedAt: e.now().UTC(),
	}, nil
}

// Open verifies freshness and unseals an envelope. The age check comes
// first and is independent of integrity: a stale envelope is rejected with
// ErrPayloadExpired even when untampered. Integrity and decryption errors
// from the sealed key or payload propagate unchanged.
func (e *Engine) Open(env Envelope, secret string) ([]byte, error) {
	if e.now().UTC().Sub(env.CreatedAt) > MaxEnvelopeAge {
		return nil, ErrPayloadExpired
	}
	sessionKey, err := e.Decrypt(env.SealedKey, secret)
	if err != nil {
		return nil, err
	}
	return e.Decrypt(env.Payload, string(sessionKey))
}
