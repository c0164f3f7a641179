package dao

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// PrivacyGrantByID retrieves a single grant by its identifier. The second
// return is false when no such grant exists, which revocation treats as
// already done rather than an error.
func (dao *DataAccessLayer) PrivacyGrantByID(ctx context.Context, id string) (models.PrivacyGrant, bool, error) {
	defer util.Time("PrivacyGrantByID")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return models.PrivacyGrant{}, false, err
	}
	dbGrant, found, err := privacyGrantByIDInTransaction(ctx, tx, id)
	if err != nil {
		dao.GetLogger().Error("error in PrivacyGrantByID", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbGrant, found, err
}

func privacyGrantByIDInTransaction(ctx context.Context, tx *sqlx.Tx, id string) (models.PrivacyGrant, bool, error) {
	var dbGrant models.PrivacyGrant
	getGrantStatement := getPrivacyGrantStatement + `
    where id = ?`
	err := tx.GetContext(ctx, &dbGrant, getGrantStatement, id)
	if err == sql.ErrNoRows {
		return models.PrivacyGrant{}, false, nil
	}
	if err != nil {
		return models.PrivacyGrant{}, false, err
	}
	return dbGrant, true, nil
}
