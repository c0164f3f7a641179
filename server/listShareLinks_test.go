package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func getShares(t *testing.T, s http.Handler, userID, query string) *httptest.ResponseRecorder {
	t.Helper()
	r, err := http.NewRequest("GET", testBasePath+"/shares"+query, nil)
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

func TestListShareLinks(t *testing.T) {
	now := time.Now().UTC()
	fakeDAO := fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive)
	active := testShareLink(now)
	revoked := testShareLink(now)
	revoked.IsActive = false
	fakeDAO.MagicLinks = []models.MagicLink{active, revoked}
	s := newFakeServer(fakeDAO)

	w := getShares(t, s, fakeParent, "?family="+fakeFamily)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v: %s", w.Code, w.Body.String())
	}
	raw := w.Body.String()
	if n := gjson.Get(raw, "#").Int(); n != 2 {
		t.Fatalf("Expected 2 links, got %d", n)
	}
	if v := gjson.Get(raw, "0.state").String(); v != "active" {
		t.Errorf("Expected first link active, got %s", v)
	}
	if v := gjson.Get(raw, "1.state").String(); v != "deactivated" {
		t.Errorf("Expected second link deactivated, got %s", v)
	}
	if strings.Contains(raw, fakeToken) {
		t.Error("Listing must not leak bearer tokens")
	}
}

func TestListShareLinksRequiresFamily(t *testing.T) {
	s := newFakeServer(fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive))

	w := getShares(t, s, fakeParent, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without a family, got %v", w.Code)
	}
}

func TestListShareLinksDeniedWithoutMembership(t *testing.T) {
	s := newFakeServer(&dao.FakeDAO{})

	w := getShares(t, s, fakeParent, "?family="+fakeFamily)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for a non-member, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "insufficient_permission") {
		t.Errorf("Expected insufficient_permission, got %s", w.Body.String())
	}
}
