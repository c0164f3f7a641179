package dao

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// ListFamilyAccess retrieves every membership row for a family, regardless of
// status, ordered by creation so the founding parent comes first.
func (dao *DataAccessLayer) ListFamilyAccess(ctx context.Context, familyID string) ([]models.FamilyAccess, error) {
	defer util.Time("ListFamilyAccess")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return nil, err
	}
	dbAccess, err := listFamilyAccessInTransaction(ctx, tx, familyID)
	if err != nil {
		dao.GetLogger().Error("error in ListFamilyAccess", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbAccess, err
}

func listFamilyAccessInTransaction(ctx context.Context, tx *sqlx.Tx, familyID string) ([]models.FamilyAccess, error) {
	dbAccess := []models.FamilyAccess{}
	listAccessStatement := `
    select
        id
        ,createdDate
        ,createdBy
        ,modifiedDate
        ,modifiedBy
        ,familyId
        ,principalId
        ,role
        ,status
    from family_access
    where familyId = ?
    order by createdDate asc`
	err := tx.SelectContext(ctx, &dbAccess, listAccessStatement, familyID)
	return dbAccess, err
}
