package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

// Error is the type for all sentinel errors raised by this package.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

const (
	// ErrWeakKeyParameters is returned when key derivation is requested with
	// an iteration count or salt below the enforced floors.
	ErrWeakKeyParameters Error = "crypto: key derivation parameters below minimum strength"
	// ErrIntegrityCheckFailed is returned when an authentication tag does not
	// match the ciphertext it accompanies.
	ErrIntegrityCheckFailed Error = "crypto: integrity check failed"
	// ErrDecryptionFailed is returned when a payload authenticates but cannot
	// be decrypted into well formed plaintext.
	ErrDecryptionFailed Error = "crypto: decryption failed"
	// ErrPayloadExpired is returned when an envelope is older than the
	// freshness window.
	ErrPayloadExpired Error = "crypto: payload exceeded freshness window"
	// ErrEntropyUnavailable is returned when the random source cannot supply
	// bytes. There is no fallback source.
	ErrEntropyUnavailable Error = "crypto: entropy source unavailable"
)

// Floors for key derivation. Requests below these values are rejected, never
// silently raised.
const (
	MinIterations = 100000
	MinSaltLength = 16
)

// KeyLength is the derived key size in bytes, sized for AES-256.
const KeyLength = 32

// EncryptedPayload carries one encrypted message together with everything
// needed to verify and decrypt it except the secret. Byte fields render as
// base64 in JSON.
type EncryptedPayload struct {
	// Ciphertext is the AES-256-CBC output, PKCS#7 padded
	Ciphertext []byte `json:"ciphertext"`
	// IV is the CBC initialization vector, one block, unique per message
	IV []byte `json:"iv"`
	// Tag is the HMAC-SHA-256 over the ciphertext, keyed by the derived key
	Tag []byte `json:"hmac"`
	// Salt is the key derivation salt, unique per message
	Salt []byte `json:"salt"`
	// Iterations is the key derivation work factor used for this message
	Iterations int `json:"iterations"`
	// CreatedAt is when the payload was produced
	CreatedAt time.Time `json:"createdAt"`
}

// Digest is a salted hash of some data, suitable for storage and later
// verification without retaining the data itself.
type Digest struct {
	Hash []byte `json:"hash"`
	Salt []byte `json:"salt"`
}

// Engine performs the key derivation, encryption, hashing and token
// generation for the access core. The zero value is not usable; construct
// with NewEngine.
type Engine struct {
	iterations int
	logger     *zap.Logger
	random     io.Reader
	now        func() time.Time
	keys       *lru.Cache
}

// Opt sets an option on an Engine.
type Opt func(*Engine)

// WithLogger sets the logger used for operational reporting. Secrets and
// derived keys are never logged.
func WithLogger(logger *zap.Logger) Opt {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIterations sets the work factor used when the engine derives keys for
// new payloads. Values below MinIterations are rejected at derivation time.
func WithIterations(n int) Opt {
	return func(e *Engine) {
		e.iterations = n
	}
}

// WithKeyCache enables an LRU cache of derived keys. Derivation is expensive
// at the enforced work factor; hot secrets benefit from reuse. Cached entries
// are byte-identical to cold derivations.
func WithKeyCache(size int) Opt {
	return func(e *Engine) {
		if size <= 0 {
			return
		}
		cache, err := lru.New(size)
		if err != nil {
			return
		}
		e.keys = cache
	}
}

// WithRandom overrides the entropy source. Tests use this to exercise the
// failure path; production code should not call it.
func WithRandom(r io.Reader) Opt {
	return func(e *Engine) {
		if r != nil {
			e.random = r
		}
	}
}

// WithClock overrides the time source used to stamp payloads and judge
// freshness.
func WithClock(now func() time.Time) Opt {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an Engine with the default work factor and entropy
// source, adjusted by any options.
func NewEngine(opts ...Opt) *Engine {
	e := &Engine{
		iterations: MinIterations,
		logger:     zap.NewNop(),
		random:     rand.Reader,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeriveKey stretches a secret into a 32 byte key with PBKDF2-HMAC-SHA-256.
// Iteration counts below MinIterations and salts shorter than MinSaltLength
// are rejected with ErrWeakKeyParameters.
func (e *Engine) DeriveKey(secret string, salt []byte, iterations int) ([]byte, error) {
	if iterations < MinIterations || len(salt) < MinSaltLength {
		return nil, ErrWeakKeyParameters
	}
	if e.keys != nil {
		ck := cacheKey(secret, salt, iterations)
		if cached, ok := e.keys.Get(ck); ok {
			key := make([]byte, KeyLength)
			copy(key, cached.([]byte))
			return key, nil
		}
		key := pbkdf2.Key([]byte(secret), salt, iterations, KeyLength, sha256.New)
		held := make([]byte, KeyLength)
		copy(held, key)
		e.keys.Add(ck, held)
		return key, nil
	}
	return pbkdf2.Key([]byte(secret), salt, iterations, KeyLength, sha256.New), nil
}

// cacheKey fingerprints a derivation request. Length prefixes keep distinct
// (secret, salt) pairs from colliding on concatenation.
func cacheKey(secret string, salt []byte, iterations int) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(secret)))
	h.Write(n[:])
	io.WriteString(h, secret)
	h.Write(salt)
	binary.BigEndian.PutUint64(n[:], uint64(iterations))
	h.Write(n[:])
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Encrypt seals plaintext under a secret. Each call draws a fresh salt and
// IV, derives a per-message key, encrypts with AES-256-CBC, and computes the
// authentication tag over the ciphertext.
func (e *Engine) Encrypt(plaintext []byte, secret string) (EncryptedPayload, error) {
	salt := make([]byte, MinSaltLength)
	if _, err := io.ReadFull(e.random, salt); err != nil {
		e.logger.Error("encrypt could not draw salt", zap.Error(err))
		return EncryptedPayload{}, ErrEntropyUnavailable
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(e.random, iv); err != nil {
		e.logger.Error("encrypt could not draw iv", zap.Error(err))
		return EncryptedPayload{}, ErrEntropyUnavailable
	}
	key, err := e.DeriveKey(secret, salt, e.iterations)
	if err != nil {
		return EncryptedPayload{}, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return EncryptedPayload{}, err
	}
	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return EncryptedPayload{
		Ciphertext: ciphertext,
		IV:         iv,
		Tag:        computeTag(key, ciphertext),
		Salt:       salt,
		Iterations: e.iterations,
		CreatedAt:  e.now().UTC(),
	}, nil
}

// Decrypt verifies and opens a payload. The tag comparison is constant time
// and happens before any decryption work. A bad tag, including one produced
// under a different secret, yields ErrIntegrityCheckFailed; a payload that
// authenticates but is structurally broken yields ErrDecryptionFailed.
func (e *Engine) Decrypt(p EncryptedPayload, secret string) ([]byte, error) {
	key, err := e.DeriveKey(secret, p.Salt, p.Iterations)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(computeTag(key, p.Ciphertext), p.Tag) {
		return nil, ErrIntegrityCheckFailed
	}
	if len(p.IV) != aes.BlockSize || len(p.Ciphertext) == 0 || len(p.Ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext := make([]byte, len(p.Ciphertext))
	cipher.NewCBCDecrypter(block, p.IV).CryptBlocks(plaintext, p.Ciphertext)
	return unpadPKCS7(plaintext, aes.BlockSize)
}

// Hash produces a salted SHA-256 digest of data. A nil salt draws a fresh
// random one; callers verifying against a stored digest pass its salt back.
func (e *Engine) Hash(data []byte, salt []byte) (Digest, error) {
	if salt == nil {
		salt = make([]byte, MinSaltLength)
		if _, err := io.ReadFull(e.random, salt); err != nil {
			e.logger.Error("hash could not draw salt", zap.Error(err))
			return Digest{}, ErrEntropyUnavailable
		}
	}
	held := make([]byte, len(salt))
	copy(held, salt)
	return Digest{Hash: saltedSum(data, held), Salt: held}, nil
}

// VerifyHash reports whether data matches the digest. The comparison is
// constant time and a malformed digest verifies false rather than erroring.
func (e *Engine) VerifyHash(data []byte, d Digest) bool {
	if len(d.Hash) != sha256.Size || len(d.Salt) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(saltedSum(data, d.Salt), d.Hash) == 1
}

func saltedSum(data, salt []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write(data)
	return h.Sum(nil)
}

func computeTag(key, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padLen), data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	padLen := int(data[len(data)-1])
	if padLen < 1 || padLen > blockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-padLen], nil
}
