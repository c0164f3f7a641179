package dao

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// DeletePrivacyGrant removes a grant outright. Grants are exceptions, not
// history, so unlike memberships they do not survive their own revocation.
// Deleting a grant that is already gone succeeds quietly.
func (dao *DataAccessLayer) DeletePrivacyGrant(ctx context.Context, id string) error {
	defer util.Time("DeletePrivacyGrant")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return err
	}
	err = deletePrivacyGrantInTransaction(ctx, tx, id)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for DeletePrivacyGrant", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return err
		}
		err = deletePrivacyGrantInTransaction(ctx, tx, id)
	}
	if err != nil {
		logger.Error("error in DeletePrivacyGrant", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}

func deletePrivacyGrantInTransaction(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `delete from privacy_grant where id = ?`, id)
	return err
}
