package crypto

import (
	"io"

	"go.uber.org/zap"
)

// tokenAlphabet is the character set for generated tokens. Alphanumeric only
// so tokens survive URLs, email clients and hand transcription.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// tokenRejectAt is the largest multiple of the alphabet size that fits in a
// byte. Random bytes at or above it are discarded so every character is
// selected with equal probability; reducing the full byte range modulo 62
// would favor the low end of the alphabet.
const tokenRejectAt = byte(len(tokenAlphabet) * (256 / len(tokenAlphabet)))

// GenerateSecureToken returns a random alphanumeric string of the requested
// length drawn from the engine's entropy source. Failure of the source is an
// error; there is no fallback generator.
func (e *Engine) GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", Error("crypto: token length must be positive")
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(e.random, buf); err != nil {
			e.logger.Error("token generation could not draw entropy", zap.Error(err))
			return "", ErrEntropyUnavailable
		}
		for _, b := range buf {
			if b >= tokenRejectAt {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
