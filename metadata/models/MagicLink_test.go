package models

import (
	"database/sql"
	"testing"
	"time"
)

func TestMagicLinkStatePrecedence(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	link := MagicLink{
		IsActive:       false,
		ExpiresAt:      now.Add(-time.Hour),
		MaxAccessCount: sql.NullInt64{Int64: 1, Valid: true},
		AccessCount:    5,
	}
	// deactivated wins even when the link is also expired and over its limit
	if got := link.State(now); got != MagicLinkDeactivated {
		t.Errorf("expected deactivated, got %s", got)
	}
	link.IsActive = true
	if got := link.State(now); got != MagicLinkExpired {
		t.Errorf("expected expired, got %s", got)
	}
	link.ExpiresAt = now.Add(time.Hour)
	if got := link.State(now); got != MagicLinkAccessLimitReached {
		t.Errorf("expected access_limit_reached, got %s", got)
	}
	link.AccessCount = 0
	if got := link.State(now); got != MagicLinkActive {
		t.Errorf("expected active, got %s", got)
	}
}

func TestMagicLinkStateExpiryBoundary(t *testing.T) {
	expiry := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	link := MagicLink{IsActive: true, ExpiresAt: expiry}
	if got := link.State(expiry.Add(-time.Nanosecond)); got != MagicLinkActive {
		t.Errorf("just before expiry should be active, got %s", got)
	}
	// the expiry instant itself is no longer valid
	if got := link.State(expiry); got != MagicLinkExpired {
		t.Errorf("at expiry should be expired, got %s", got)
	}
}

func TestMagicLinkUncappedNeverLimitReached(t *testing.T) {
	now := time.Now().UTC()
	link := MagicLink{IsActive: true, ExpiresAt: now.Add(time.Hour), AccessCount: 1 << 20}
	if got := link.State(now); got != MagicLinkActive {
		t.Errorf("uncapped link should stay active, got %s", got)
	}
	if got := link.RemainingAccesses(); got != -1 {
		t.Errorf("uncapped link should report -1 remaining, got %d", got)
	}
}
