package mapping

import (
	"fmt"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/protocol"
)

// MapPrivacyGrantToProtocol converts an internal PrivacyGrant model to its
// API exposable form.
func MapPrivacyGrantToProtocol(i *models.PrivacyGrant) protocol.PrivacyGrant {
	o := protocol.PrivacyGrant{}
	o.ID = i.ID
	o.FamilyID = i.FamilyID
	o.ChildID = i.ChildID
	o.GranteeID = i.GranteeID
	o.GrantedBy = i.GrantedBy
	o.Permissions = i.Permissions.Strings()
	o.CreatedDate = i.CreatedDate
	o.ModifiedDate = i.ModifiedDate
	return o
}

// MapUpsertPrivacyGrantRequestToModel converts an API request to a model
// ready for persistence, stamped as issued by grantedBy. An empty permission
// set is rejected; revoking a grant is a delete, not an empty upsert.
func MapUpsertPrivacyGrantRequestToModel(i *protocol.UpsertPrivacyGrantRequest, grantedBy string, now time.Time) (models.PrivacyGrant, error) {
	if i.FamilyID == "" {
		return models.PrivacyGrant{}, fmt.Errorf("familyId is required")
	}
	if i.ChildID == "" {
		return models.PrivacyGrant{}, fmt.Errorf("childId is required")
	}
	if i.GranteeID == "" {
		return models.PrivacyGrant{}, fmt.Errorf("granteeId is required")
	}
	if len(i.Permissions) == 0 {
		return models.PrivacyGrant{}, fmt.Errorf("permissions must not be empty")
	}
	perms := make([]models.Permission, len(i.Permissions))
	for p, q := range i.Permissions {
		perms[p] = models.Permission(q)
	}
	return models.PrivacyGrant{
		CommonMeta:  models.NewCommonMeta(grantedBy, now),
		FamilyID:    i.FamilyID,
		ChildID:     i.ChildID,
		GranteeID:   i.GranteeID,
		GrantedBy:   grantedBy,
		Permissions: models.NewPermissionSet(perms...),
	}, nil
}
