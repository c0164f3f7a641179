package main

import (
	"strings"
	"testing"
)

func TestFormatEventAllowed(t *testing.T) {
	raw := []byte(`{"action":"share.create","allowed":true,"principal_id":"user-parent-1","family_id":"fam-1","session_id":"sess-9"}`)
	line, allowed := formatEvent(raw)
	if !allowed {
		t.Error("expected an allowed event")
	}
	if !strings.HasPrefix(line, "ALLOW share.create") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, "principal=user-parent-1") || !strings.Contains(line, "family=fam-1") {
		t.Errorf("line = %q", line)
	}
}

func TestFormatEventDenied(t *testing.T) {
	raw := []byte(`{"action":"grant.upsert","allowed":false,"reason":"insufficient_permission","principal_id":"user-aunt-1"}`)
	line, allowed := formatEvent(raw)
	if allowed {
		t.Error("expected a denied event")
	}
	if !strings.HasPrefix(line, "DENY insufficient_permission grant.upsert") {
		t.Errorf("line = %q", line)
	}
}

func TestFormatEventGarbage(t *testing.T) {
	line, allowed := formatEvent([]byte("not json"))
	if allowed {
		t.Error("garbage is not an allowance")
	}
	if !strings.HasPrefix(line, "DENY") {
		t.Errorf("line = %q", line)
	}
}
