package dao

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// FakeDAO is suitable for tests. Add fields to this struct to hold fake
// responses for each of the methods that FakeDAO will implement. These fake
// response fields can be explicitly set, or setup functions can be defined.
type FakeDAO struct {
	ConsumeResult     capability.ConsumeResult
	DBState           models.DBState
	Err               error
	AuditErr          error
	FamilyAccess      models.FamilyAccess
	FamilyAccessFound bool
	FamilyAccessList  []models.FamilyAccess
	MagicLink         models.MagicLink
	MagicLinks        []models.MagicLink
	PrivacyGrant      models.PrivacyGrant
	PrivacyGrantFound bool
	PrivacyGrants     []models.PrivacyGrant
	AuditEntries      []models.AuditEntry
}

// ConsumeMagicLink for FakeDAO.
func (fake *FakeDAO) ConsumeMagicLink(ctx context.Context, id string, now time.Time) (capability.ConsumeResult, error) {
	return fake.ConsumeResult, fake.Err
}

// CreateAuditEntry for FakeDAO. Entries are captured so tests can assert on
// what would have been durably recorded.
func (fake *FakeDAO) CreateAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	if fake.AuditErr != nil {
		return fake.AuditErr
	}
	fake.AuditEntries = append(fake.AuditEntries, entry)
	return nil
}

// CreateFamilyAccess for FakeDAO.
func (fake *FakeDAO) CreateFamilyAccess(ctx context.Context, access models.FamilyAccess) (models.FamilyAccess, error) {
	if fake.Err != nil {
		return models.FamilyAccess{}, fake.Err
	}
	if fake.FamilyAccess.ID == "" {
		return access, nil
	}
	return fake.FamilyAccess, nil
}

// CreateMagicLink for FakeDAO.
func (fake *FakeDAO) CreateMagicLink(ctx context.Context, link models.MagicLink) (models.MagicLink, error) {
	if fake.Err != nil {
		return models.MagicLink{}, fake.Err
	}
	if fake.MagicLink.ID == "" {
		return link, nil
	}
	return fake.MagicLink, nil
}

// DeletePrivacyGrant for FakeDAO.
func (fake *FakeDAO) DeletePrivacyGrant(ctx context.Context, id string) error {
	return fake.Err
}

// FamilyAccessForPrincipal for FakeDAO.
func (fake *FakeDAO) FamilyAccessForPrincipal(ctx context.Context, principalID string, familyID string) (models.FamilyAccess, bool, error) {
	return fake.FamilyAccess, fake.FamilyAccessFound, fake.Err
}

// GetDBState for FakeDAO.
func (fake *FakeDAO) GetDBState(ctx context.Context) (models.DBState, error) {
	return fake.DBState, fake.Err
}

// ListFamilyAccess for FakeDAO.
func (fake *FakeDAO) ListFamilyAccess(ctx context.Context, familyID string) ([]models.FamilyAccess, error) {
	return fake.FamilyAccessList, fake.Err
}

// ListMagicLinksByFamily for FakeDAO.
func (fake *FakeDAO) ListMagicLinksByFamily(ctx context.Context, familyID string) ([]models.MagicLink, error) {
	return fake.MagicLinks, fake.Err
}

// MagicLinkByID for FakeDAO.
func (fake *FakeDAO) MagicLinkByID(ctx context.Context, id string) (models.MagicLink, error) {
	return fake.MagicLink, fake.Err
}

// MagicLinkByToken for FakeDAO.
func (fake *FakeDAO) MagicLinkByToken(ctx context.Context, token string) (models.MagicLink, error) {
	return fake.MagicLink, fake.Err
}

// PrivacyGrantByID for FakeDAO.
func (fake *FakeDAO) PrivacyGrantByID(ctx context.Context, id string) (models.PrivacyGrant, bool, error) {
	return fake.PrivacyGrant, fake.PrivacyGrantFound, fake.Err
}

// PrivacyGrantsForGrantee for FakeDAO.
func (fake *FakeDAO) PrivacyGrantsForGrantee(ctx context.Context, granteeID string, childID string) ([]models.PrivacyGrant, error) {
	return fake.PrivacyGrants, fake.Err
}

// SetMagicLinkActive for FakeDAO.
func (fake *FakeDAO) SetMagicLinkActive(ctx context.Context, id string, active bool) error {
	return fake.Err
}

// UpdateFamilyAccessStatus for FakeDAO.
func (fake *FakeDAO) UpdateFamilyAccessStatus(ctx context.Context, id string, status string, modifiedBy string) error {
	return fake.Err
}

// UpsertPrivacyGrant for FakeDAO.
func (fake *FakeDAO) UpsertPrivacyGrant(ctx context.Context, grant models.PrivacyGrant) (models.PrivacyGrant, error) {
	if fake.Err != nil {
		return models.PrivacyGrant{}, fake.Err
	}
	if fake.PrivacyGrant.ID == "" {
		return grant, nil
	}
	return fake.PrivacyGrant, nil
}

// GetLogger for FakeDAO.
func (fake *FakeDAO) GetLogger() *zap.Logger {
	return zap.NewNop()
}

var _ DAO = (*FakeDAO)(nil)
