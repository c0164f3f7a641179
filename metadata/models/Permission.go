package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// Permission is a single access verb understood by the access core. The verb
// strings are stable identifiers that appear in requirements, privacy grants,
// magic links, and audit records.
type Permission string

// Permissions attainable through family roles.
const (
	PermissionRead           Permission = "read"
	PermissionWrite          Permission = "write"
	PermissionDelete         Permission = "delete"
	PermissionManageUsers    Permission = "manage_users"
	PermissionInviteUsers    Permission = "invite_users"
	PermissionExport         Permission = "export"
	PermissionManageSettings Permission = "manage_settings"
	PermissionViewAnalytics  Permission = "view_analytics"
)

// Permissions attainable through per-child privacy grants. These verbs are
// never minted by a role and only reach a principal through an explicit grant
// or a magic link.
const (
	PermissionViewSymptoms   Permission = "view_symptoms"
	PermissionViewTreatments Permission = "view_treatments"
	PermissionViewVitals     Permission = "view_vitals"
	PermissionViewDocuments  Permission = "view_documents"
	PermissionViewNotes      Permission = "view_notes"
)

// PermissionSet is an unordered collection of permissions with set semantics.
// Unknown verbs are carried through storage and resolution untouched so that
// older deployments remain forward compatible with newer verbs.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is a member of the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll reports whether every listed permission is a member. An empty list is
// vacuously satisfied.
func (s PermissionSet) HasAll(perms []Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one listed permission is a member. An empty
// list yields false; callers that treat an absent constraint as satisfied must
// check for that before calling.
func (s PermissionSet) HasAny(perms []Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Union returns a new set holding the members of both sets. Neither receiver
// nor argument is modified.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Copy returns an independent copy of the set.
func (s PermissionSet) Copy() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order for deterministic output.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted members as plain strings.
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}

// MarshalJSON renders the set as a sorted JSON array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON accepts a JSON array of verb strings.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*s = NewPermissionSet(perms...)
	return nil
}

// Value implements driver.Valuer, storing the set as its JSON array form.
func (s PermissionSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON array form written by Value.
func (s *PermissionSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = PermissionSet{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("models: cannot scan %T into PermissionSet", src)
	}
}
