package auth

import (
	"context"
	"sync"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// FakeGrantSource is a canned GrantSource for tests. Populate Access keyed by
// principalID|familyID and Grants keyed by granteeID|childID; set Err to make
// every lookup fail.
type FakeGrantSource struct {
	Access map[string]models.FamilyAccess
	Grants map[string][]models.PrivacyGrant
	Err    error
}

// NewFakeGrantSource returns an empty FakeGrantSource.
func NewFakeGrantSource() *FakeGrantSource {
	return &FakeGrantSource{
		Access: make(map[string]models.FamilyAccess),
		Grants: make(map[string][]models.PrivacyGrant),
	}
}

// SetAccess stores a membership row for the principal in the family.
func (f *FakeGrantSource) SetAccess(access models.FamilyAccess) {
	f.Access[access.PrincipalID+"|"+access.FamilyID] = access
}

// AddGrant stores a privacy grant for the grantee and child.
func (f *FakeGrantSource) AddGrant(grant models.PrivacyGrant) {
	key := grant.GranteeID + "|" + grant.ChildID
	f.Grants[key] = append(f.Grants[key], grant)
}

// FamilyAccessForPrincipal implements GrantSource.
func (f *FakeGrantSource) FamilyAccessForPrincipal(ctx context.Context, principalID string, familyID string) (models.FamilyAccess, bool, error) {
	if f.Err != nil {
		return models.FamilyAccess{}, false, f.Err
	}
	access, ok := f.Access[principalID+"|"+familyID]
	return access, ok, nil
}

// PrivacyGrantsForGrantee implements GrantSource.
func (f *FakeGrantSource) PrivacyGrantsForGrantee(ctx context.Context, granteeID string, childID string) ([]models.PrivacyGrant, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Grants[granteeID+"|"+childID], nil
}

// FakeAuditor captures recorded entries for tests. Set Err to simulate a
// recording failure.
type FakeAuditor struct {
	mu      sync.Mutex
	Entries []models.AuditEntry
	Err     error
}

// Record implements Auditor.
func (f *FakeAuditor) Record(ctx context.Context, entry models.AuditEntry) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, entry)
	return nil
}

// Recorded returns a copy of the captured entries.
func (f *FakeAuditor) Recorded() []models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditEntry, len(f.Entries))
	copy(out, f.Entries)
	return out
}
