package dao

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// FamilyAccessForPrincipal retrieves the membership row for a principal in a
// family. The second return is false when no row exists; resolution treats
// that the same as a non-conferring membership, so it is not an error here.
func (dao *DataAccessLayer) FamilyAccessForPrincipal(ctx context.Context, principalID string, familyID string) (models.FamilyAccess, bool, error) {
	defer util.Time("FamilyAccessForPrincipal")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return models.FamilyAccess{}, false, err
	}
	dbAccess, found, err := familyAccessForPrincipalInTransaction(ctx, tx, principalID, familyID)
	if err != nil {
		dao.GetLogger().Error("error in FamilyAccessForPrincipal", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbAccess, found, err
}

func familyAccessForPrincipalInTransaction(ctx context.Context, tx *sqlx.Tx, principalID string, familyID string) (models.FamilyAccess, bool, error) {
	var dbAccess models.FamilyAccess
	getAccessStatement := `
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
    where principalId = ? and familyId = ?`
	err := tx.GetContext(ctx, &dbAccess, getAccessStatement, principalID, familyID)
	if err == sql.ErrNoRows {
		return models.FamilyAccess{}, false, nil
	}
	if err != nil {
		return models.FamilyAccess{}, false, err
	}
	return dbAccess, true, nil
}
