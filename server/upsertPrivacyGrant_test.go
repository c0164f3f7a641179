package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

const fakeGrantee = "user-grandmother-1"

func putGrant(t *testing.T, s http.Handler, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	r, err := http.NewRequest("PUT", testBasePath+"/grants", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" {
		r.Header.Set("X-User-Id", userID)
	}
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestUpsertPrivacyGrant(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)

	body := `{"familyId":"` + fakeFamily + `","childId":"` + fakeChild + `","granteeId":"` + fakeGrantee + `","permissions":["view_vitals","view_symptoms"]}`
	w := putGrant(t, s, fakeParent, body)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v: %s", w.Code, w.Body.String())
	}
	raw := w.Body.String()
	if v := gjson.Get(raw, "granteeId").String(); v != fakeGrantee {
		t.Errorf("Expected granteeId %s, got %s", fakeGrantee, v)
	}
	if v := gjson.Get(raw, "grantedBy").String(); v != fakeParent {
		t.Errorf("Expected grantedBy %s, got %s", fakeParent, v)
	}
	if n := len(gjson.Get(raw, "permissions").Array()); n != 2 {
		t.Errorf("Expected 2 permissions, got %d", n)
	}
	if len(fakeDAO.AuditEntries) != 1 || fakeDAO.AuditEntries[0].Action != "grant.upsert" {
		t.Error("Expected an audited grant.upsert decision")
	}
}

func TestUpsertPrivacyGrantDeniedForParentWithoutManageUsers(t *testing.T) {
	// A plain parent holds invite_users but not manage_users, so grant
	// management stays with the family admin.
	fakeDAO := fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)

	body := `{"familyId":"` + fakeFamily + `","childId":"` + fakeChild + `","granteeId":"` + fakeGrantee + `","permissions":["view_vitals"]}`
	w := putGrant(t, s, fakeParent, body)

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "insufficient_permission") {
		t.Errorf("Expected insufficient_permission, got %s", w.Body.String())
	}
}

func TestUpsertPrivacyGrantRejectsEmptyPermissions(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)

	body := `{"familyId":"` + fakeFamily + `","childId":"` + fakeChild + `","granteeId":"` + fakeGrantee + `","permissions":[]}`
	w := putGrant(t, s, fakeParent, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %v: revoking is a delete, not an empty upsert", w.Code)
	}
}

func TestDeletePrivacyGrant(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	fakeDAO.PrivacyGrant = models.PrivacyGrant{
		CommonMeta:  models.NewCommonMeta(fakeParent, time.Now().UTC()),
		FamilyID:    fakeFamily,
		ChildID:     fakeChild,
		GranteeID:   fakeGrantee,
		GrantedBy:   fakeParent,
		Permissions: models.NewPermissionSet(models.PermissionViewVitals),
	}
	fakeDAO.PrivacyGrantFound = true
	s := newFakeServer(fakeDAO)

	r, err := http.NewRequest("DELETE", testBasePath+"/grants/"+fakeDAO.PrivacyGrant.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("X-User-Id", fakeParent)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %v: %s", w.Code, w.Body.String())
	}
	if len(fakeDAO.AuditEntries) != 1 || fakeDAO.AuditEntries[0].Action != "grant.delete" {
		t.Error("Expected an audited grant.delete decision")
	}
}

func TestDeletePrivacyGrantMissingIsQuietWithFamilyScope(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)

	r, err := http.NewRequest("DELETE", testBasePath+"/grants/11111111-2222-3333-4444-555555555555?family="+fakeFamily, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("X-User-Id", fakeParent)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected repeated revocation to stay 204, got %v", w.Code)
	}
}

func TestDeletePrivacyGrantMissingWithoutScopeFailsClosed(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)

	r, err := http.NewRequest("DELETE", testBasePath+"/grants/11111111-2222-3333-4444-555555555555", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("X-User-Id", fakeParent)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected unscoped delete of an unknown grant to fail closed, got %v", w.Code)
	}
}
