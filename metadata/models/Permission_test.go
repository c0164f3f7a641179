package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPermissionSetUnionDoesNotMutate(t *testing.T) {
	a := NewPermissionSet(PermissionRead, PermissionWrite)
	b := NewPermissionSet(PermissionViewVitals)
	u := a.Union(b)
	if len(a) != 2 || len(b) != 1 {
		t.Errorf("union mutated its inputs: a=%v b=%v", a.Strings(), b.Strings())
	}
	for _, p := range []Permission{PermissionRead, PermissionWrite, PermissionViewVitals} {
		if !u.Has(p) {
			t.Errorf("union missing %s", p)
		}
	}
}

func TestPermissionSetHasAllVacuous(t *testing.T) {
	empty := NewPermissionSet()
	if !empty.HasAll(nil) {
		t.Error("HasAll over an empty list should be vacuously true")
	}
	if empty.HasAny(nil) {
		t.Error("HasAny over an empty list should be false")
	}
	if empty.HasAll([]Permission{PermissionRead}) {
		t.Error("empty set should not satisfy a non-empty list")
	}
}

func TestPermissionSetJSONSorted(t *testing.T) {
	s := NewPermissionSet(PermissionWrite, PermissionDelete, PermissionRead)
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["delete","read","write"]` {
		t.Errorf("expected sorted array, got %s", b)
	}
	var back PermissionSet
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, s) {
		t.Errorf("round trip mismatch: %v vs %v", back.Strings(), s.Strings())
	}
}

func TestPermissionSetScanUnknownVerbs(t *testing.T) {
	var s PermissionSet
	if err := s.Scan(`["read","view_genome"]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	// unknown verbs survive storage untouched
	if !s.Has(Permission("view_genome")) {
		t.Error("unknown verb dropped during scan")
	}
}

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role, min Role
		want      bool
	}{
		{RoleAdmin, RoleViewer, true},
		{RoleParent, RoleParent, true},
		{RoleCaregiver, RoleParent, false},
		{RoleViewer, RoleCaregiver, false},
		{Role("superuser"), RoleViewer, false},
		{RoleAdmin, Role("superuser"), false},
	}
	for _, c := range cases {
		if got := c.role.AtLeast(c.min); got != c.want {
			t.Errorf("AtLeast(%s, %s) = %v, want %v", c.role, c.min, got, c.want)
		}
	}
}
