package dao

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// PrivacyGrantsForGrantee retrieves the grants naming a grantee for one
// child. The unique index on (childId, granteeId) means at most one row comes
// back today, but resolution unions whatever it receives, so the shape stays
// a slice.
func (dao *DataAccessLayer) PrivacyGrantsForGrantee(ctx context.Context, granteeID string, childID string) ([]models.PrivacyGrant, error) {
	defer util.Time("PrivacyGrantsForGrantee")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return nil, err
	}
	dbGrants, err := privacyGrantsForGranteeInTransaction(ctx, tx, granteeID, childID)
	if err != nil {
		dao.GetLogger().Error("error in PrivacyGrantsForGrantee", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbGrants, err
}

// getPrivacyGrantStatement is the shared projection for privacy grant reads.
// Callers append their own where clause.
const getPrivacyGrantStatement = `
    select
        id
        ,createdDate
        ,createdBy
        ,modifiedDate
        ,modifiedBy
        ,familyId
        ,childId
        ,granteeId
        ,grantedBy
        ,permissions
    from privacy_grant`

func privacyGrantsForGranteeInTransaction(ctx context.Context, tx *sqlx.Tx, granteeID string, childID string) ([]models.PrivacyGrant, error) {
	dbGrants := []models.PrivacyGrant{}
	getGrantsStatement := getPrivacyGrantStatement + `
    where granteeId = ? and childId = ?`
	err := tx.SelectContext(ctx, &dbGrants, getGrantsStatement, granteeID, childID)
	return dbGrants, err
}
