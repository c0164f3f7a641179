package models

import "time"

// DBState is the single-row table identifying a database instance and the
// schema version it was created or migrated to.
type DBState struct {
	// SchemaVersion is the version of the database schema in place
	SchemaVersion string `db:"schemaVersion"`
	// Identifier uniquely identifies this database instance
	Identifier string `db:"identifier"`
	// CreatedDate is when the schema was first installed
	CreatedDate time.Time `db:"createdDate"`
	// ModifiedDate is when the schema was last migrated
	ModifiedDate time.Time `db:"modifiedDate"`
}
