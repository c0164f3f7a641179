package dao_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func TestDAOCreateAuditEntry(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	entry := models.AuditEntry{
		ID:                  uuid.New().String(),
		RecordedAt:          time.Now().UTC(),
		SessionID:           uuid.New().String(),
		PrincipalID:         "daotest-audited",
		FamilyID:            sql.NullString{String: uuid.New().String(), Valid: true},
		Action:              "symptom.read",
		Allowed:             false,
		Reason:              string(models.DenialInsufficientPermission),
		RequiredRoles:       models.StringList{"parent", "admin"},
		RequiredPermissions: models.StringList{"role:read"},
		SystemIP:            "10.0.0.1",
	}
	if err := d.CreateAuditEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}

	// Entries without identity or action are refused; the guard always
	// supplies both.
	if err := d.CreateAuditEntry(ctx, models.AuditEntry{RecordedAt: time.Now().UTC()}); err == nil {
		t.Error("expected entry without id and action to be rejected")
	}
}

func TestDAOGetDBState(t *testing.T) {
	d := testDAO(t)
	state, err := d.GetDBState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.SchemaVersion != dao.SchemaVersion {
		t.Errorf("expected schema version %s, got %s", dao.SchemaVersion, state.SchemaVersion)
	}
	if state.Identifier == "" {
		t.Error("expected a database identifier")
	}
}
