package models

import (
	"time"

	"github.com/google/uuid"
)

// CommonMeta is a nestable structure defining the common fields carried by
// every persisted record in the system
type CommonMeta struct {
	// ID is the unique identifier for the record in the database, a
	// version 4 UUID rendered in its canonical string form
	ID string `db:"id"`
	// CreatedDate is the timestamp of when the record was created
	CreatedDate time.Time `db:"createdDate"`
	// CreatedBy is the principal that created the record
	CreatedBy string `db:"createdBy"`
	// ModifiedDate is the timestamp of when the record was last modified
	ModifiedDate time.Time `db:"modifiedDate"`
	// ModifiedBy is the principal that last modified the record
	ModifiedBy string `db:"modifiedBy"`
}

// NewCommonMeta initializes metadata for a record being created by the given
// principal, stamping identity and both timestamp pairs from the same instant.
func NewCommonMeta(createdBy string, now time.Time) CommonMeta {
	return CommonMeta{
		ID:           uuid.New().String(),
		CreatedDate:  now,
		CreatedBy:    createdBy,
		ModifiedDate: now,
		ModifiedBy:   createdBy,
	}
}
