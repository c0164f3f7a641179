package dao

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// ConsumeMagicLink spends one access on a link atomically. The guard lives in
// the update's where clause, so the increment only lands while the link is
// active and under its limit; two bearers racing for the last access serialize
// on the row lock and exactly one sees Consumed true. A zero-row update is a
// lost race, not an error, reported with the current counter so the caller
// can name the precise reason.
func (dao *DataAccessLayer) ConsumeMagicLink(ctx context.Context, id string, now time.Time) (capability.ConsumeResult, error) {
	defer util.Time("ConsumeMagicLink")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return capability.ConsumeResult{}, err
	}
	result, err := consumeMagicLinkInTransaction(ctx, tx, id, now)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for ConsumeMagicLink", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return capability.ConsumeResult{}, err
		}
		result, err = consumeMagicLinkInTransaction(ctx, tx, id, now)
	}
	if err != nil {
		logger.Error("error in ConsumeMagicLink", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return result, err
}

func consumeMagicLinkInTransaction(ctx context.Context, tx *sqlx.Tx, id string, now time.Time) (capability.ConsumeResult, error) {
	consumeStatement := `
    update magic_link set
        accessCount = accessCount + 1
        ,lastAccessed = ?
        ,modifiedDate = ?
    where
        id = ?
        and isActive = 1
        and (maxAccessCount is null or accessCount < maxAccessCount)`
	res, err := tx.ExecContext(ctx, consumeStatement, now, now, id)
	if err != nil {
		return capability.ConsumeResult{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return capability.ConsumeResult{}, err
	}
	// Read the counter back inside the transaction either way. When the
	// update matched nothing this also distinguishes a spent link from a
	// missing row, surfacing the latter as sql.ErrNoRows from the get.
	var accessCount int64
	if err := tx.GetContext(ctx, &accessCount, `select accessCount from magic_link where id = ?`, id); err != nil {
		return capability.ConsumeResult{}, err
	}
	return capability.ConsumeResult{Consumed: affected == 1, AccessCount: accessCount}, nil
}
