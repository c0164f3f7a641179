package dao

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// ListMagicLinksByFamily retrieves every link issued for a family, newest
// first, including deactivated and expired ones so issuers can review what
// they have handed out.
func (dao *DataAccessLayer) ListMagicLinksByFamily(ctx context.Context, familyID string) ([]models.MagicLink, error) {
	defer util.Time("ListMagicLinksByFamily")()
	tx, err := dao.MetadataDB.BeginTxx(ctx, nil)
	if err != nil {
		dao.GetLogger().Error("could not begin transaction", zap.Error(err))
		return nil, err
	}
	dbLinks, err := listMagicLinksByFamilyInTransaction(ctx, tx, familyID)
	if err != nil {
		dao.GetLogger().Error("error in ListMagicLinksByFamily", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbLinks, err
}

func listMagicLinksByFamilyInTransaction(ctx context.Context, tx *sqlx.Tx, familyID string) ([]models.MagicLink, error) {
	dbLinks := []models.MagicLink{}
	err := tx.SelectContext(ctx, &dbLinks, getMagicLinkStatement+` where familyId = ? order by createdDate desc`, familyID)
	return dbLinks, err
}
