package dao

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// getMagicLinkStatement is the shared projection for magic link reads. Each
// caller appends its own where clause.
const getMagicLinkStatement = `
    select
        id
        ,createdDate
        ,createdBy
        ,modifiedDate
        ,modifiedBy
        ,token
        ,familyId
        ,childId
        ,providerName
        ,providerEmail
        ,permissions
        ,expiresAt
        ,maxAccessCount
        ,accessCount
        ,lastAccessed
        ,isActive
        ,encryptedNotes
    from magic_link`

// MagicLinkByID retrieves one link by its identifier. Missing rows surface
// as database/sql.ErrNoRows for the manager to map.
func (dao *DataAccessLayer) MagicLinkByID(ctx context.Context, id string) (models.MagicLink, error) {
	defer util.Time("MagicLinkByID")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return models.MagicLink{}, err
	}
	dbLink, err := magicLinkByIDInTransaction(ctx, tx, id)
	if err != nil {
		if err != sql.ErrNoRows {
			dao.GetLogger().Error("error in MagicLinkByID", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbLink, err
}

func magicLinkByIDInTransaction(ctx context.Context, tx *sqlx.Tx, id string) (models.MagicLink, error) {
	var dbLink models.MagicLink
	err := tx.GetContext(ctx, &dbLink, getMagicLinkStatement+` where id = ?`, id)
	return dbLink, err
}
