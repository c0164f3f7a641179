package dao

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// UpdateFamilyAccessStatus moves a membership through its life cycle, invited
// to active to revoked. The row is kept on revocation; resolution simply
// stops counting it. Missing rows surface as database/sql.ErrNoRows.
func (dao *DataAccessLayer) UpdateFamilyAccessStatus(ctx context.Context, id string, status string, modifiedBy string) error {
	defer util.Time("UpdateFamilyAccessStatus")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return err
	}
	err = updateFamilyAccessStatusInTransaction(ctx, tx, id, status, modifiedBy)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for UpdateFamilyAccessStatus", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return err
		}
		err = updateFamilyAccessStatusInTransaction(ctx, tx, id, status, modifiedBy)
	}
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Error("error in UpdateFamilyAccessStatus", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}

func updateFamilyAccessStatusInTransaction(ctx context.Context, tx *sqlx.Tx, id string, status string, modifiedBy string) error {
	// The existence probe is separate from the update because an update that
	// repeats the current status reports zero affected rows on mysql, and
	// that must not read as a missing membership.
	var existingID string
	if err := tx.GetContext(ctx, &existingID, `select id from family_access where id = ?`, id); err != nil {
		return err
	}
	updateStatement := `
    update family_access set
        modifiedDate = ?
        ,modifiedBy = ?
        ,status = ?
    where id = ?`
	_, err := tx.ExecContext(ctx, updateStatement, time.Now().UTC(), modifiedBy, status, id)
	return err
}
