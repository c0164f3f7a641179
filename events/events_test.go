package events

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestAccessEventYield(t *testing.T) {
	e := AccessEvent{
		ID:                  "evt-1",
		SchemaVersion:       "1.0",
		EventType:           "tracker-access-event",
		Action:              "delete_entry",
		Timestamp:           1767225600,
		SystemIP:            "10.0.0.7",
		SessionID:           "sess-3",
		PrincipalID:         "cara",
		FamilyID:            "fam1",
		Allowed:             false,
		Reason:              "insufficient_role",
		RequiredRoles:       []string{"admin", "parent"},
		RequiredPermissions: []string{"delete"},
	}
	raw := string(e.Yield())
	if got := gjson.Get(raw, "event_type").String(); got != "tracker-access-event" {
		t.Errorf("event_type = %q", got)
	}
	if gjson.Get(raw, "allowed").Bool() {
		t.Error("allowed should be false")
	}
	if got := gjson.Get(raw, "reason").String(); got != "insufficient_role" {
		t.Errorf("reason = %q", got)
	}
	if got := gjson.Get(raw, "required_roles.#").Int(); got != 2 {
		t.Errorf("required_roles count = %d", got)
	}
	if gjson.Get(raw, "child_id").Exists() {
		t.Error("empty child_id should be omitted")
	}
	if e.EventAction() != "delete_entry" || e.IsSuccessful() {
		t.Error("event accessors mismatch")
	}
}
