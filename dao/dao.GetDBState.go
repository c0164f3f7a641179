package dao

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// GetDBState retrieves the database schema version and instance identifier.
// Construction refuses to proceed when the stored version does not match
// SchemaVersion.
func (dao *DataAccessLayer) GetDBState(ctx context.Context) (models.DBState, error) {
	defer util.Time("GetDBState")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return models.DBState{}, err
	}
	dbState, err := getDBStateInTransaction(ctx, tx)
	if err != nil {
		dao.GetLogger().Error("error in GetDBState", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbState, err
}

func getDBStateInTransaction(ctx context.Context, tx *sqlx.Tx) (models.DBState, error) {
	var dbState models.DBState
	getStateStatement := `
    select
        schemaVersion
        ,identifier
        ,createdDate
        ,modifiedDate
    from db_state
    order by createdDate desc limit 1`
	err := tx.GetContext(ctx, &dbState, getStateStatement)
	return dbState, err
}
