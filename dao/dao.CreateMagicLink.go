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

// CreateMagicLink persists a freshly minted link. The manager stamps
// metadata, generates the token, and seals any notes before the link reaches
// this layer; the row is stored bit for bit and read back as the canonical
// result. Token collisions fail on the unique index and are retried upstream
// with a new token rather than here.
func (dao *DataAccessLayer) CreateMagicLink(ctx context.Context, link models.MagicLink) (models.MagicLink, error) {
	defer util.Time("CreateMagicLink")()
	logger := dao.GetLogger()
	retryCounter := dao.DeadlockRetryCounter
	retryDelay := dao.DeadlockRetryDelay
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.MagicLink{}, err
	}
	dbLink, err := createMagicLinkInTransaction(ctx, tx, link)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryable) {
		logger.Debug("restarting transaction for CreateMagicLink", zap.String("retryReason", util.FirstMatch(err.Error(), retryable)), zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.BeginTxx(ctx, nil)
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return models.MagicLink{}, err
		}
		dbLink, err = createMagicLinkInTransaction(ctx, tx, link)
	}
	if err != nil {
		logger.Error("error in CreateMagicLink", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbLink, err
}

func createMagicLinkInTransaction(ctx context.Context, tx *sqlx.Tx, link models.MagicLink) (models.MagicLink, error) {
	var dbLink models.MagicLink
	if link.ID == "" || link.Token == "" || link.FamilyID == "" {
		return dbLink, fmt.Errorf("CreateMagicLink requires id, token, and familyId")
	}
	addLinkStatement := `
    insert into magic_link
        (id, createdDate, createdBy, modifiedDate, modifiedBy, token, familyId, childId,
         providerName, providerEmail, permissions, expiresAt, maxAccessCount, accessCount,
         lastAccessed, isActive, encryptedNotes)
    values
        (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, addLinkStatement, link.ID, link.CreatedDate,
		link.CreatedBy, link.ModifiedDate, link.ModifiedBy, link.Token, link.FamilyID,
		link.ChildID, link.ProviderName, link.ProviderEmail, link.Permissions,
		link.ExpiresAt, link.MaxAccessCount, link.AccessCount, link.LastAccessed,
		link.IsActive, link.EncryptedNotes); err != nil {
		return dbLink, err
	}
	err := tx.GetContext(ctx, &dbLink, getMagicLinkStatement+` where id = ?`, link.ID)
	return dbLink, err
}
