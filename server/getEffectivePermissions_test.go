package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func getPermissions(t *testing.T, s http.Handler, userID, query string) *httptest.ResponseRecorder {
	t.Helper()
	r, err := http.NewRequest("GET", testBasePath+"/permissions/effective?"+query, nil)
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

func TestGetEffectivePermissionsSelf(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleCaregiver, models.AccessStatusActive)
	fakeDAO.PrivacyGrants = []models.PrivacyGrant{{
		FamilyID:    fakeFamily,
		ChildID:     fakeChild,
		GranteeID:   fakeParent,
		Permissions: models.NewPermissionSet(models.PermissionViewVitals),
	}}
	s := newFakeServer(fakeDAO)

	w := getPermissions(t, s, fakeParent, "family="+fakeFamily+"&child="+fakeChild)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v: %s", w.Code, w.Body.String())
	}
	raw := w.Body.String()
	if !gjson.Get(raw, "hasMembership").Bool() {
		t.Error("Expected membership to be reported")
	}
	if v := gjson.Get(raw, "role").String(); v != "caregiver" {
		t.Errorf("Expected role caregiver, got %s", v)
	}
	union := gjson.Get(raw, "permissions").Array()
	seen := map[string]bool{}
	for _, p := range union {
		seen[p.String()] = true
	}
	if !seen["read"] || !seen["view_vitals"] {
		t.Errorf("Expected union of role and grant permissions, got %v", union)
	}
}

func TestGetEffectivePermissionsRequiresFamily(t *testing.T) {
	s := newFakeServer(fakeDAOWithMembership(models.RoleParent, models.AccessStatusActive))

	w := getPermissions(t, s, fakeParent, "child="+fakeChild)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without a family, got %v", w.Code)
	}
}

func TestGetEffectivePermissionsDeniedWithoutMembership(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleParent, models.AccessStatusRevoked)
	s := newFakeServer(fakeDAO)

	w := getPermissions(t, s, fakeParent, "family="+fakeFamily)

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected a revoked membership to resolve to nothing, got %v", w.Code)
	}
}

func TestPermissionCacheInvalidationOnGrantWrite(t *testing.T) {
	fakeDAO := fakeDAOWithMembership(models.RoleAdmin, models.AccessStatusActive)
	s := newFakeServer(fakeDAO)
	s.Conf.PermissionCacheTTL = 60

	// Prime the cache with the grantee's resolution, which has no grants yet.
	query := "principal=" + fakeGrantee + "&family=" + fakeFamily + "&child=" + fakeChild
	w := getPermissions(t, s, fakeParent, query)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v", w.Code)
	}
	if len(gjson.Get(w.Body.String(), "grantPermissions").Array()) != 0 {
		t.Fatal("Expected no grant permissions before the grant exists")
	}

	// A grant appears underneath; the cached view keeps serving.
	fakeDAO.PrivacyGrants = []models.PrivacyGrant{{
		FamilyID:    fakeFamily,
		ChildID:     fakeChild,
		GranteeID:   fakeGrantee,
		Permissions: models.NewPermissionSet(models.PermissionViewVitals),
	}}
	w = getPermissions(t, s, fakeParent, query)
	if len(gjson.Get(w.Body.String(), "grantPermissions").Array()) != 0 {
		t.Fatal("Expected the cached resolution to keep serving")
	}

	// Writing a grant through the API drops the grantee's cached entries.
	body := `{"familyId":"` + fakeFamily + `","childId":"` + fakeChild + `","granteeId":"` + fakeGrantee + `","permissions":["view_vitals"]}`
	pw := putGrant(t, s, fakeParent, body)
	if pw.Code != http.StatusOK {
		t.Fatalf("Expected grant write to succeed, got %v: %s", pw.Code, pw.Body.String())
	}

	w = getPermissions(t, s, fakeParent, query)
	if v := gjson.Get(w.Body.String(), "grantPermissions.0").String(); v != "view_vitals" {
		t.Errorf("Expected a fresh resolution after the grant write, got %s", w.Body.String())
	}
}
