package dao

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// SetMagicLinkActive flips the stored active flag. The manager only ever
// clears it; repeating a deactivate is a no-op that still succeeds. Missing
// rows surface as database/sql.ErrNoRows.
func (dao *DataAccessLayer) SetMagicLinkActive(ctx context.Context, id string, active bool) error {
	defer util.Time("SetMagicLinkActive")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return err
	}
	err = setMagicLinkActiveInTransaction(ctx, tx, id, active)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for SetMagicLinkActive", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return err
		}
		err = setMagicLinkActiveInTransaction(ctx, tx, id, active)
	}
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Error("error in SetMagicLinkActive", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}

func setMagicLinkActiveInTransaction(ctx context.Context, tx *sqlx.Tx, id string, active bool) error {
	// Probe existence first. Repeating a deactivate leaves the row unchanged
	// and mysql reports zero affected rows for that, which must not read as a
	// missing link.
	var existingID string
	if err := tx.GetContext(ctx, &existingID, `select id from magic_link where id = ?`, id); err != nil {
		return err
	}
	updateStatement := `
    update magic_link set
        modifiedDate = ?
        ,isActive = ?
    where id = ?`
	_, err := tx.ExecContext(ctx, updateStatement, time.Now().UTC(), active, id)
	return err
}
