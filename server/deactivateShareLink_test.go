package server_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func deleteShare(t *testing.T, s http.Handler, userID, id string) *httptest.ResponseRecorder {
	t.Helper()
	r, err := http.NewRequest("DELETE", testBasePath+"/shares/"+id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" {
		r.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestDeactivateShareLink(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive)
	link := testShareLink(time.Now().UTC())
	fakeDAO.MagicLink = link
	s := newFakeServer(fakeDAO)

	w := deleteShare(t, s, fakeParent, link.ID)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %v: %s", w.Code, w.Body.String())
	}
	if len(fakeDAO.AuditEntries) != 1 || fakeDAO.AuditEntries[0].Action != "share.revoke" {
		t.Error("Expected the revocation decision audited")
	}

	// Revoking again is quiet success. The row stays for listings and audit.
	w = deleteShare(t, s, fakeParent, link.ID)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected repeat revocation to be 204, got %v", w.Code)
	}
}

func TestDeactivateShareLinkUnknownIs404(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive)
	link := testShareLink(time.Now().UTC())
	fakeDAO.Err = sql.ErrNoRows
	s := newFakeServer(fakeDAO)

	w := deleteShare(t, s, fakeParent, link.ID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %v", w.Code)
	}
}

func TestDeactivateShareLinkDeniedForCaregiver(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleCaregiver, models.AccessStatusActive)
	link := testShareLink(time.Now().UTC())
	fakeDAO.MagicLink = link
	s := newFakeServer(fakeDAO)

	w := deleteShare(t, s, fakeParent, link.ID)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "insufficient_role") {
		t.Errorf("Expected insufficient_role, got %s", w.Body.String())
	}
}
