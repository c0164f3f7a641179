package dao_test

import (
	"sync"
	"testing"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
)

// DAO tests hit a locally-running database directly, configured through the
// ACT_DB_* environment variables. They are skipped wholesale in short mode.
var (
	d         *dao.DataAccessLayer
	setupOnce sync.Once
	setupErr  error
)

func testDAO(t *testing.T) *dao.DataAccessLayer {
	t.Helper()
	if testing.Short() {
		t.Skip("dao tests require a database")
	}
	setupOnce.Do(func() {
		conf, err := config.NewAppConfiguration(config.CommandLineOpts{})
		if err != nil {
			setupErr = err
			return
		}
		db, err := conf.DatabaseConnection.GetDatabaseHandle()
		if err != nil {
			setupErr = err
			return
		}
		if _, err := dao.MigrateUp(db); err != nil {
			setupErr = err
			return
		}
		d = &dao.DataAccessLayer{MetadataDB: db, Logger: config.RootLogger, DeadlockRetryCounter: 30, DeadlockRetryDelay: 55}
	})
	if setupErr != nil {
		t.Fatalf("dao test setup failed: %v", setupErr)
	}
	return d
}
