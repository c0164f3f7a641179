package capability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// tokenLength gives roughly 285 bits of bearer entropy at six bits per
// alphanumeric character.
const tokenLength = 48

// Manager drives the magic link life cycle over a Persister.
type Manager struct {
	persister   Persister
	engine      *crypto.Engine
	logger      *zap.Logger
	now         func() time.Time
	notesSecret string
}

// Opt sets an option on a Manager.
type Opt func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for expiry and issue timestamps.
func WithClock(now func() time.Time) Opt {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNotesSecret configures the secret that seals issuer notes at rest.
// Without it, links carrying notes are refused rather than stored in the
// clear.
func WithNotesSecret(secret string) Opt {
	return func(m *Manager) {
		m.notesSecret = secret
	}
}

// NewManager returns a Manager persisting through the given Persister and
// drawing tokens from the given crypto engine.
func NewManager(persister Persister, engine *crypto.Engine, opts ...Opt) *Manager {
	m := &Manager{
		persister: persister,
		engine:    engine,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateInput carries the parameters for a new magic link.
type CreateInput struct {
	FamilyID       string
	ChildID        string
	ProviderName   string
	ProviderEmail  string
	Permissions    models.PermissionSet
	ExpiresAt      time.Time
	MaxAccessCount int64
	Notes          string
	CreatedBy      string
}

// Create issues a new active link. The expiry must be in the future, the
// access limit non-negative with zero meaning unlimited, and the permission
// set non-empty. Notes, when present, are sealed before they touch storage.
func (m *Manager) Create(ctx context.Context, input CreateInput) (models.MagicLink, error) {
	now := m.now().UTC()
	if input.FamilyID == "" || input.CreatedBy == "" {
		return models.MagicLink{}, ErrInvalidInput
	}
	if !input.ExpiresAt.After(now) {
		return models.MagicLink{}, ErrInvalidInput
	}
	if input.MaxAccessCount < 0 {
		return models.MagicLink{}, ErrInvalidInput
	}
	if len(input.Permissions) == 0 {
		return models.MagicLink{}, ErrInvalidInput
	}

	token, err := m.engine.GenerateSecureToken(tokenLength)
	if err != nil {
		m.logger.Error("token generation failed", zap.Error(err))
		return models.MagicLink{}, err
	}

	link := models.MagicLink{
		CommonMeta:    models.NewCommonMeta(input.CreatedBy, now),
		Token:         token,
		FamilyID:      input.FamilyID,
		ProviderName:  input.ProviderName,
		ProviderEmail: input.ProviderEmail,
		Permissions:   input.Permissions.Copy(),
		ExpiresAt:     input.ExpiresAt.UTC(),
		IsActive:      true,
	}
	if input.ChildID != "" {
		link.ChildID = sql.NullString{String: input.ChildID, Valid: true}
	}
	if input.MaxAccessCount > 0 {
		link.MaxAccessCount = sql.NullInt64{Int64: input.MaxAccessCount, Valid: true}
	}
	if input.Notes != "" {
		sealed, err := m.sealNotes(input.Notes)
		if err != nil {
			return models.MagicLink{}, err
		}
		link.EncryptedNotes = sql.NullString{String: sealed, Valid: true}
	}

	created, err := m.persister.CreateMagicLink(ctx, link)
	if err != nil {
		m.logger.Error("link create failed", zap.String("family", input.FamilyID), zap.Error(err))
		return models.MagicLink{}, err
	}
	m.logger.Info("magic link issued",
		zap.String("link", created.ID),
		zap.String("family", created.FamilyID),
		zap.String("provider", created.ProviderEmail),
		zap.Time("expiresAt", created.ExpiresAt),
		zap.Int64("maxAccessCount", input.MaxAccessCount))
	return created, nil
}

// Consumption is what a bearer receives for one successful consume: the link
// record as of the consume, the permissions it confers, and the issuer's
// notes unsealed.
type Consumption struct {
	Link        models.MagicLink
	Permissions models.PermissionSet
	Notes       string
}

// Validate checks a token without spending an access. Denials follow the
// same precedence as consumption.
func (m *Manager) Validate(ctx context.Context, token string) (models.MagicLink, error) {
	link, err := m.loadByToken(ctx, token)
	if err != nil {
		return models.MagicLink{}, err
	}
	if denial := denialFor(link.State(m.now().UTC())); denial != nil {
		return models.MagicLink{}, denial
	}
	return link, nil
}

// ValidateAndConsume is the only path that spends an access. The persister's
// compare-and-increment is the gate: between the read and the increment no
// window exists in which two bearers can both take the last access. A lost
// race is reloaded once so the denial names the precise current state.
func (m *Manager) ValidateAndConsume(ctx context.Context, token string) (Consumption, error) {
	now := m.now().UTC()
	link, err := m.loadByToken(ctx, token)
	if err != nil {
		return Consumption{}, err
	}
	if denial := denialFor(link.State(now)); denial != nil {
		return Consumption{}, denial
	}

	result, err := m.persister.ConsumeMagicLink(ctx, link.ID, now)
	if err != nil {
		m.logger.Error("link consume failed", zap.String("link", link.ID), zap.Error(err))
		return Consumption{}, err
	}
	if !result.Consumed {
		if current, err := m.persister.MagicLinkByID(ctx, link.ID); err == nil {
			if denial := denialFor(current.State(now)); denial != nil {
				return Consumption{}, denial
			}
		}
		return Consumption{}, ErrCapabilityLimitReached
	}

	link.AccessCount = result.AccessCount
	link.LastAccessed = sql.NullTime{Time: now, Valid: true}

	var notes string
	if link.EncryptedNotes.Valid {
		notes, err = m.unsealNotes(link.EncryptedNotes.String)
		if err != nil {
			m.logger.Error("link notes failed to unseal", zap.String("link", link.ID), zap.Error(err))
			return Consumption{}, err
		}
	}
	m.logger.Info("magic link consumed",
		zap.String("link", link.ID),
		zap.String("family", link.FamilyID),
		zap.Int64("accessCount", link.AccessCount))
	return Consumption{Link: link, Permissions: link.Permissions.Copy(), Notes: notes}, nil
}

// Deactivate permanently turns a link off. Deactivating an already inactive
// link succeeds; there is no operation anywhere that turns a link back on.
func (m *Manager) Deactivate(ctx context.Context, id string) error {
	err := m.persister.SetMagicLinkActive(ctx, id, false)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLinkNotFound
	}
	if err != nil {
		m.logger.Error("link deactivate failed", zap.String("link", id), zap.Error(err))
		return err
	}
	m.logger.Info("magic link deactivated", zap.String("link", id))
	return nil
}

func (m *Manager) loadByToken(ctx context.Context, token string) (models.MagicLink, error) {
	if token == "" {
		return models.MagicLink{}, ErrLinkNotFound
	}
	link, err := m.persister.MagicLinkByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MagicLink{}, ErrLinkNotFound
	}
	if err != nil {
		m.logger.Error("link lookup failed", zap.Error(err))
		return models.MagicLink{}, err
	}
	return link, nil
}

// denialFor orders denials by permanence: deactivation wins over expiry,
// expiry wins over the access limit.
func denialFor(state models.MagicLinkState) error {
	switch state {
	case models.MagicLinkDeactivated:
		return ErrCapabilityRevoked
	case models.MagicLinkExpired:
		return ErrCapabilityExpired
	case models.MagicLinkAccessLimitReached:
		return ErrCapabilityLimitReached
	default:
		return nil
	}
}

func (m *Manager) sealNotes(notes string) (string, error) {
	if m.notesSecret == "" {
		return "", ErrSealingUnavailable
	}
	payload, err := m.engine.Encrypt([]byte(notes), m.notesSecret)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (m *Manager) unsealNotes(sealed string) (string, error) {
	if m.notesSecret == "" {
		return "", ErrSealingUnavailable
	}
	var payload crypto.EncryptedPayload
	if err := json.Unmarshal([]byte(sealed), &payload); err != nil {
		return "", crypto.ErrDecryptionFailed
	}
	notes, err := m.engine.Decrypt(payload, m.notesSecret)
	if err != nil {
		return "", err
	}
	return string(notes), nil
}
