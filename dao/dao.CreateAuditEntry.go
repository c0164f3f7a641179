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

// CreateAuditEntry durably records one access decision. The guard calls this
// before any decision is released, so a failure here converts the decision to
// a denial upstream; this method never swallows an error to keep a request
// moving.
func (dao *DataAccessLayer) CreateAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	defer util.Time("CreateAuditEntry")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return err
	}
	err = createAuditEntryInTransaction(ctx, tx, entry)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for CreateAuditEntry", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return err
		}
		err = createAuditEntryInTransaction(ctx, tx, entry)
	}
	if err != nil {
		logger.Error("error in CreateAuditEntry", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}

func createAuditEntryInTransaction(ctx context.Context, tx *sqlx.Tx, entry models.AuditEntry) error {
	if entry.ID == "" || entry.Action == "" {
		return fmt.Errorf("CreateAuditEntry requires id and action")
	}
	addEntryStatement := `
    insert into audit_entry
        (id, recordedAt, sessionId, principalId, familyId, childId, action, allowed,
         reason, requiredRoles, requiredPermissions, systemIp)
    values
        (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, addEntryStatement, entry.ID, entry.RecordedAt,
		entry.SessionID, entry.PrincipalID, entry.FamilyID, entry.ChildID, entry.Action,
		entry.Allowed, entry.Reason, entry.RequiredRoles, entry.RequiredPermissions,
		entry.SystemIP)
	return err
}
