package dao_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func TestDAOUpsertPrivacyGrant(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	familyID := models.NewCommonMeta("setup", now).ID
	childID := models.NewCommonMeta("setup", now).ID
	grantee := "daotest-grantee-" + suffix
	parent := "daotest-parent-" + suffix

	grant := models.PrivacyGrant{
		CommonMeta:  models.NewCommonMeta(parent, now),
		FamilyID:    familyID,
		ChildID:     childID,
		GranteeID:   grantee,
		GrantedBy:   parent,
		Permissions: models.NewPermissionSet(models.PermissionViewSymptoms),
	}
	first, err := d.UpsertPrivacyGrant(ctx, grant)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != grant.ID {
		t.Errorf("expected id %s, got %s", grant.ID, first.ID)
	}
	if !first.Permissions.Has(models.PermissionViewSymptoms) {
		t.Error("expected view_symptoms in stored grant")
	}

	// A second upsert for the same pair replaces the permission set but
	// keeps the original row identity and creation stamps.
	replacement := models.PrivacyGrant{
		CommonMeta:  models.NewCommonMeta(parent, now.Add(time.Second)),
		FamilyID:    familyID,
		ChildID:     childID,
		GranteeID:   grantee,
		GrantedBy:   parent,
		Permissions: models.NewPermissionSet(models.PermissionViewVitals, models.PermissionViewNotes),
	}
	second, err := d.UpsertPrivacyGrant(ctx, replacement)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("expected replacement to keep id %s, got %s", first.ID, second.ID)
	}
	if !second.CreatedDate.Equal(first.CreatedDate) {
		t.Error("expected replacement to keep the original createdDate")
	}
	if second.Permissions.Has(models.PermissionViewSymptoms) {
		t.Error("expected replacement to drop view_symptoms")
	}
	if !second.Permissions.Has(models.PermissionViewVitals) || !second.Permissions.Has(models.PermissionViewNotes) {
		t.Error("expected replacement permissions to be stored")
	}

	grants, err := d.PrivacyGrantsForGrantee(ctx, grantee, childID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant for pair, got %d", len(grants))
	}

	// Grants for another child do not leak in.
	other, err := d.PrivacyGrantsForGrantee(ctx, grantee, models.NewCommonMeta("setup", now).ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("expected no grants for other child, got %d", len(other))
	}
}

func TestDAODeletePrivacyGrant(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	childID := models.NewCommonMeta("setup", now).ID
	grantee := "daotest-revoked-" + suffix

	grant := models.PrivacyGrant{
		CommonMeta:  models.NewCommonMeta("parent", now),
		FamilyID:    models.NewCommonMeta("setup", now).ID,
		ChildID:     childID,
		GranteeID:   grantee,
		GrantedBy:   "parent",
		Permissions: models.NewPermissionSet(models.PermissionViewDocuments),
	}
	created, err := d.UpsertPrivacyGrant(ctx, grant)
	if err != nil {
		t.Fatal(err)
	}
	loaded, found, err := d.PrivacyGrantByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !found || loaded.GranteeID != grantee {
		t.Fatalf("expected to load grant %s by id", created.ID)
	}

	if err := d.DeletePrivacyGrant(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, found, err = d.PrivacyGrantByID(ctx, created.ID); err != nil {
		t.Fatal(err)
	} else if found {
		t.Error("expected grant to be unfindable by id after delete")
	}
	grants, err := d.PrivacyGrantsForGrantee(ctx, grantee, childID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 0 {
		t.Errorf("expected grant gone after delete, got %d", len(grants))
	}

	// Deleting again succeeds quietly.
	if err := d.DeletePrivacyGrant(ctx, created.ID); err != nil {
		t.Errorf("expected repeated delete to succeed: %v", err)
	}
}
