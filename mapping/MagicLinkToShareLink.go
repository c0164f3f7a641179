package mapping

import (
	"fmt"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
)

// MapMagicLinkToShareLink converts an internal MagicLink model to an API
// exposable ShareLink. The bearer token is never copied; listings must not
// leak credentials.
func MapMagicLinkToShareLink(i *models.MagicLink, now time.Time) protocol.ShareLink {
	o := protocol.ShareLink{}
	o.ID = i.ID
	o.FamilyID = i.FamilyID
	o.ChildID = i.ChildID.String
	o.ProviderName = i.ProviderName
	o.ProviderEmail = i.ProviderEmail
	o.Permissions = i.Permissions.Strings()
	o.State = string(i.State(now))
	o.ExpiresAt = i.ExpiresAt
	o.MaxAccessCount = i.MaxAccessCount.Int64
	o.AccessCount = i.AccessCount
	o.RemainingAccesses = i.RemainingAccesses()
	if i.LastAccessed.Valid {
		t := i.LastAccessed.Time
		o.LastAccessed = &t
	}
	o.CreatedDate = i.CreatedDate
	o.CreatedBy = i.CreatedBy
	return o
}

// MapCreatedMagicLinkToShareLink converts a freshly issued link, including
// the bearer token. This mapping is only for the create response, the one
// place the token is ever shown.
func MapCreatedMagicLinkToShareLink(i *models.MagicLink, now time.Time) protocol.ShareLink {
	o := MapMagicLinkToShareLink(i, now)
	o.Token = i.Token
	return o
}

// MapMagicLinksToShareLinks converts a slice of internal MagicLink models to
// API exposable ShareLinks, deriving each state against the same instant.
func MapMagicLinksToShareLinks(i []models.MagicLink, now time.Time) []protocol.ShareLink {
	o := make([]protocol.ShareLink, len(i))
	for p, q := range i {
		o[p] = MapMagicLinkToShareLink(&q, now)
	}
	return o
}

// MapCreateShareLinkRequestToCreateInput converts an API request to manager
// input, resolving the expiry from an absolute time, a relative TTL, or the
// service default, in that order.
func MapCreateShareLinkRequestToCreateInput(i *protocol.CreateShareLinkRequest, createdBy string, now time.Time, defaultTTL time.Duration) (capability.CreateInput, error) {
	if i.FamilyID == "" {
		return capability.CreateInput{}, fmt.Errorf("familyId is required")
	}
	if len(i.Permissions) == 0 {
		return capability.CreateInput{}, fmt.Errorf("permissions must not be empty")
	}
	if i.MaxAccessCount < 0 {
		return capability.CreateInput{}, fmt.Errorf("maxAccessCount must not be negative")
	}
	expiresAt := i.ExpiresAt
	if expiresAt.IsZero() {
		ttl := defaultTTL
		if i.TTLHours > 0 {
			ttl = time.Duration(i.TTLHours) * time.Hour
		}
		expiresAt = now.Add(ttl)
	}
	perms := make([]models.Permission, len(i.Permissions))
	for p, q := range i.Permissions {
		perms[p] = models.Permission(q)
	}
	return capability.CreateInput{
		FamilyID:       i.FamilyID,
		ChildID:        i.ChildID,
		ProviderName:   i.ProviderName,
		ProviderEmail:  i.ProviderEmail,
		Permissions:    models.NewPermissionSet(perms...),
		ExpiresAt:      expiresAt,
		MaxAccessCount: i.MaxAccessCount,
		Notes:          i.Notes,
		CreatedBy:      createdBy,
	}, nil
}

// MapConsumptionToShareAccessResponse converts the result of one successful
// consume into the bearer-facing response.
func MapConsumptionToShareAccessResponse(i *capability.Consumption) protocol.ShareAccessResponse {
	o := protocol.ShareAccessResponse{}
	o.FamilyID = i.Link.FamilyID
	o.ChildID = i.Link.ChildID.String
	o.Permissions = i.Permissions.Strings()
	o.ProviderName = i.Link.ProviderName
	o.Notes = i.Notes
	o.ExpiresAt = i.Link.ExpiresAt
	o.AccessCount = i.Link.AccessCount
	o.RemainingAccesses = i.Link.RemainingAccesses()
	return o
}
