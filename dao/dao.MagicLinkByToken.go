package dao

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// MagicLinkByToken retrieves one link by the bearer token itself. An unknown
// token comes back as database/sql.ErrNoRows, which the manager reports the
// same way as a revoked link so that probing tokens reveals nothing.
func (dao *DataAccessLayer) MagicLinkByToken(ctx context.Context, token string) (models.MagicLink, error) {
	defer util.Time("MagicLinkByToken")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return models.MagicLink{}, err
	}
	dbLink, err := magicLinkByTokenInTransaction(ctx, tx, token)
	if err != nil {
		if err != sql.ErrNoRows {
			dao.GetLogger().Error("error in MagicLinkByToken", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbLink, err
}

func magicLinkByTokenInTransaction(ctx context.Context, tx *sqlx.Tx, token string) (models.MagicLink, error) {
	var dbLink models.MagicLink
	err := tx.GetContext(ctx, &dbLink, getMagicLinkStatement+` where token = ?`, token)
	return dbLink, err
}
