package dao

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// SchemaVersion marks compatibility with previously created databases.
// On startup we check the stored version and refuse to serve against a
// database whose schema we do not understand.
var SchemaVersion = "20260302"

// DAO defines the contract our app has with the database.
type DAO interface {
	ConsumeMagicLink(ctx context.Context, id string, now time.Time) (capability.ConsumeResult, error)
	CreateAuditEntry(ctx context.Context, entry models.AuditEntry) error
	CreateFamilyAccess(ctx context.Context, access models.FamilyAccess) (models.FamilyAccess, error)
	CreateMagicLink(ctx context.Context, link models.MagicLink) (models.MagicLink, error)
	DeletePrivacyGrant(ctx context.Context, id string) error
	FamilyAccessForPrincipal(ctx context.Context, principalID string, familyID string) (models.FamilyAccess, bool, error)
	GetDBState(ctx context.Context) (models.DBState, error)
	ListFamilyAccess(ctx context.Context, familyID string) ([]models.FamilyAccess, error)
	ListMagicLinksByFamily(ctx context.Context, familyID string) ([]models.MagicLink, error)
	MagicLinkByID(ctx context.Context, id string) (models.MagicLink, error)
	MagicLinkByToken(ctx context.Context, token string) (models.MagicLink, error)
	PrivacyGrantByID(ctx context.Context, id string) (models.PrivacyGrant, bool, error)
	PrivacyGrantsForGrantee(ctx context.Context, granteeID string, childID string) ([]models.PrivacyGrant, error)
	SetMagicLinkActive(ctx context.Context, id string, active bool) error
	UpdateFamilyAccessStatus(ctx context.Context, id string, status string, modifiedBy string) error
	UpsertPrivacyGrant(ctx context.Context, grant models.PrivacyGrant) (models.PrivacyGrant, error)
	GetLogger() *zap.Logger
}

// DataAccessLayer is a concrete DAO implementation with a true DB connection.
type DataAccessLayer struct {
	// MetadataDB is the connection.
	MetadataDB *sqlx.DB
	// Logger has a default, but can be updated by passing options to constructor.
	Logger *zap.Logger
	// DeadlockRetryCounter is the number of times to retry transactions that
	// fail due to deadlocks or lock wait timeouts.
	DeadlockRetryCounter int64
	// DeadlockRetryDelay is the time to wait in milliseconds before retrying.
	DeadlockRetryDelay int64
}

// Opt sets an option on DataAccessLayer.
type Opt func(*DataAccessLayer)

// WithLogger sets a custom logger on DataAccessLayer.
func WithLogger(logger *zap.Logger) Opt {
	return func(d *DataAccessLayer) {
		if logger != nil {
			d.Logger = logger
		}
	}
}

// NewDataAccessLayer constructs a new DataAccessLayer with defaults and
// options, waiting for the database to answer and carry our schema.
func NewDataAccessLayer(conf config.DatabaseConfiguration, opts ...Opt) (*DataAccessLayer, error) {

	db, err := conf.GetDatabaseHandle()
	if err != nil {
		return nil, err
	}
	d := DataAccessLayer{
		MetadataDB:           db,
		Logger:               config.RootLogger,
		DeadlockRetryCounter: 30,
		DeadlockRetryDelay:   55,
	}
	for _, opt := range opts {
		opt(&d)
	}

	if err := pingDB(&d); err != nil {
		return nil, fmt.Errorf("could not ping database: %v", err)
	}

	state, err := d.GetDBState(context.Background())
	if err != nil {
		return nil, fmt.Errorf("getting db state failed: %v", err)
	}
	if state.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("schema version %s does not match required %s, run migrations", state.SchemaVersion, SchemaVersion)
	}

	return &d, nil
}

// GetLogger is a logger, probably for this session
func (d *DataAccessLayer) GetLogger() *zap.Logger {
	return d.Logger
}

func daoCompileCheck() DAO {
	// function exists to make compiler complain when interface changes.
	return &DataAccessLayer{}
}

// The manager and resolver collaborate with the DAO through their own
// narrower interfaces.
var _ capability.Persister = (*DataAccessLayer)(nil)

func pingDB(d *DataAccessLayer) error {

	logger := d.GetLogger()

	attempts := 0
	max := 20
	sleep := 3

	var err error

	for attempts < max {
		attempts++
		err = d.MetadataDB.Ping()
		if err == nil {
			if _, err = d.GetDBState(context.Background()); err == nil {
				return nil
			}
			logger.Info("db available but schema not populated")
		} else {
			logger.Info("db sleep for retry")
		}
		time.Sleep(time.Duration(sleep) * time.Second)
	}
	return err
}

// retryable are database error fragments worth restarting a transaction for.
// Constraint violations are not on this list; re-running the same statements
// cannot resolve them.
var retryable = []string{"Deadlock", "Lock wait timeout exceeded"}
