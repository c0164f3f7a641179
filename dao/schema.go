package dao

import (
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

// MigrationSource returns the embedded schema migrations. The migration
// history table is managed by sql-migrate itself.
func MigrationSource() migrate.MigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1-base",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS family_access (
						id varchar(36) NOT NULL,
						createdDate datetime(6) NOT NULL,
						createdBy varchar(255) NOT NULL,
						modifiedDate datetime(6) NOT NULL,
						modifiedBy varchar(255) NOT NULL,
						familyId varchar(36) NOT NULL,
						principalId varchar(255) NOT NULL,
						role varchar(32) NOT NULL,
						status varchar(32) NOT NULL,
						PRIMARY KEY (id),
						UNIQUE KEY ix_family_principal (familyId, principalId),
						KEY ix_principal (principalId)
					);`,
					`CREATE TABLE IF NOT EXISTS privacy_grant (
						id varchar(36) NOT NULL,
						createdDate datetime(6) NOT NULL,
						createdBy varchar(255) NOT NULL,
						modifiedDate datetime(6) NOT NULL,
						modifiedBy varchar(255) NOT NULL,
						familyId varchar(36) NOT NULL,
						childId varchar(36) NOT NULL,
						granteeId varchar(255) NOT NULL,
						grantedBy varchar(255) NOT NULL,
						permissions text NOT NULL,
						PRIMARY KEY (id),
						UNIQUE KEY ix_child_grantee (childId, granteeId),
						KEY ix_grantee (granteeId),
						KEY ix_grant_family (familyId)
					);`,
					`CREATE TABLE IF NOT EXISTS magic_link (
						id varchar(36) NOT NULL,
						createdDate datetime(6) NOT NULL,
						createdBy varchar(255) NOT NULL,
						modifiedDate datetime(6) NOT NULL,
						modifiedBy varchar(255) NOT NULL,
						token varchar(64) NOT NULL,
						familyId varchar(36) NOT NULL,
						childId varchar(36) NULL,
						providerName varchar(255) NOT NULL DEFAULT '',
						providerEmail varchar(255) NOT NULL DEFAULT '',
						permissions text NOT NULL,
						expiresAt datetime(6) NOT NULL,
						maxAccessCount bigint NULL,
						accessCount bigint NOT NULL DEFAULT 0,
						lastAccessed datetime(6) NULL,
						isActive tinyint(1) NOT NULL DEFAULT 1,
						encryptedNotes mediumtext NULL,
						PRIMARY KEY (id),
						UNIQUE KEY ix_token (token),
						KEY ix_family (familyId)
					);`,
					`CREATE TABLE IF NOT EXISTS audit_entry (
						id varchar(36) NOT NULL,
						recordedAt datetime(6) NOT NULL,
						sessionId varchar(64) NOT NULL DEFAULT '',
						principalId varchar(255) NOT NULL DEFAULT '',
						familyId varchar(36) NULL,
						childId varchar(36) NULL,
						action varchar(255) NOT NULL,
						allowed tinyint(1) NOT NULL,
						reason varchar(64) NOT NULL DEFAULT '',
						requiredRoles text NOT NULL,
						requiredPermissions text NOT NULL,
						systemIp varchar(64) NOT NULL DEFAULT '',
						PRIMARY KEY (id),
						KEY ix_principal_time (principalId, recordedAt),
						KEY ix_family_time (familyId, recordedAt)
					);`,
					`CREATE TABLE IF NOT EXISTS db_state (
						schemaVersion varchar(32) NOT NULL,
						identifier varchar(36) NOT NULL,
						createdDate datetime(6) NOT NULL,
						modifiedDate datetime(6) NOT NULL
					);`,
					`INSERT INTO db_state (schemaVersion, identifier, createdDate, modifiedDate)
						VALUES ('20260302', UUID(), NOW(6), NOW(6));`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS db_state;`,
					`DROP TABLE IF EXISTS audit_entry;`,
					`DROP TABLE IF EXISTS magic_link;`,
					`DROP TABLE IF EXISTS privacy_grant;`,
					`DROP TABLE IF EXISTS family_access;`,
				},
			},
		},
	}
}

// MigrateUp applies all pending migrations.
func MigrateUp(db *sqlx.DB) (int, error) {
	return migrate.Exec(db.DB, "mysql", MigrationSource(), migrate.Up)
}

// MigrateDown applies exactly one migration down.
func MigrateDown(db *sqlx.DB) (int, error) {
	return migrate.ExecMax(db.DB, "mysql", MigrationSource(), migrate.Down, 1)
}

// MigrationRecords returns the applied migration history.
func MigrationRecords(db *sqlx.DB) ([]*migrate.MigrationRecord, error) {
	return migrate.GetMigrationRecords(db.DB, "mysql")
}
