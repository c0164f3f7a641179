package dao

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// UpsertPrivacyGrant writes the per-child exception for a grantee, replacing
// the permission set wholesale when a grant for the (child, grantee) pair
// already exists. The original row keeps its identity and creation stamps; a
// replacement only advances the modification stamps. The canonical stored row
// is returned either way.
func (dao *DataAccessLayer) UpsertPrivacyGrant(ctx context.Context, grant models.PrivacyGrant) (models.PrivacyGrant, error) {
	defer util.Time("UpsertPrivacyGrant")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.PrivacyGrant{}, err
	}
	dbGrant, err := upsertPrivacyGrantInTransaction(ctx, tx, grant)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for UpsertPrivacyGrant", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return models.PrivacyGrant{}, err
		}
		dbGrant, err = upsertPrivacyGrantInTransaction(ctx, tx, grant)
	}
	if err != nil {
		logger.Error("error in UpsertPrivacyGrant", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbGrant, err
}

func upsertPrivacyGrantInTransaction(ctx context.Context, tx *sqlx.Tx, grant models.PrivacyGrant) (models.PrivacyGrant, error) {
	var dbGrant models.PrivacyGrant
	if grant.ID == "" || grant.FamilyID == "" || grant.ChildID == "" || grant.GranteeID == "" {
		return dbGrant, fmt.Errorf("UpsertPrivacyGrant requires id, familyId, childId, and granteeId")
	}
	upsertStatement := `
    insert into privacy_grant
        (id, createdDate, createdBy, modifiedDate, modifiedBy, familyId, childId, granteeId, grantedBy, permissions)
    values
        (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    on duplicate key update
        modifiedDate = values(modifiedDate)
        ,modifiedBy = values(modifiedBy)
        ,grantedBy = values(grantedBy)
        ,permissions = values(permissions)`
	if _, err := tx.ExecContext(ctx, upsertStatement, grant.ID, grant.CreatedDate,
		grant.CreatedBy, grant.ModifiedDate, grant.ModifiedBy, grant.FamilyID, grant.ChildID,
		grant.GranteeID, grant.GrantedBy, grant.Permissions); err != nil {
		return dbGrant, err
	}
	// Retrieve by the natural key since a duplicate keeps the original id
	getGrantStatement := getPrivacyGrantStatement + `
    where childId = ? and granteeId = ?`
	err := tx.GetContext(ctx, &dbGrant, getGrantStatement, grant.ChildID, grant.GranteeID)
	return dbGrant, err
}
