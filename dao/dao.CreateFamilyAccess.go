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

// CreateFamilyAccess adds a membership row binding a principal to a family.
// The caller stamps metadata before handing the record over. A principal can
// hold at most one membership per family, so a second insert for the same
// pair fails on the unique index rather than silently stacking roles.
func (dao *DataAccessLayer) CreateFamilyAccess(ctx context.Context, access models.FamilyAccess) (models.FamilyAccess, error) {
	defer util.Time("CreateFamilyAccess")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.FamilyAccess{}, err
	}
	dbAccess, err := createFamilyAccessInTransaction(ctx, tx, access)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for CreateFamilyAccess", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return models.FamilyAccess{}, err
		}
		dbAccess, err = createFamilyAccessInTransaction(ctx, tx, access)
	}
	if err != nil {
		logger.Error("error in CreateFamilyAccess", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbAccess, err
}

func createFamilyAccessInTransaction(ctx context.Context, tx *sqlx.Tx, access models.FamilyAccess) (models.FamilyAccess, error) {
	var dbAccess models.FamilyAccess
	if access.ID == "" || access.FamilyID == "" || access.PrincipalID == "" {
		return dbAccess, fmt.Errorf("CreateFamilyAccess requires id, familyId, and principalId")
	}
	addAccessStatement := `
    insert into family_access
        (id, createdDate, createdBy, modifiedDate, modifiedBy, familyId, principalId, role, status)
    values
        (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, addAccessStatement, access.ID, access.CreatedDate,
		access.CreatedBy, access.ModifiedDate, access.ModifiedBy, access.FamilyID,
		access.PrincipalID, access.Role, access.Status); err != nil {
		return dbAccess, err
	}
	// Retrieve it
	getAccessStatement := `
    select
        id
        ,createdDate
        ,createdBy
        ,modifiedDate
        ,modifiedBy
        ,familyId
        ,principalId
        ,role
        ,status
    from family_access
    where id = ?`
	err := tx.GetContext(ctx, &dbAccess, getAccessStatement, access.ID)
	return dbAccess, err
}
