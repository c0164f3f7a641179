package dao_test

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

func TestDAOConsumeMagicLink(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	link := testMagicLink("daotest-consumer-"+suffix, now, 2)
	created, err := d.CreateMagicLink(ctx, link)
	if err != nil {
		t.Fatal(err)
	}

	first, err := d.ConsumeMagicLink(ctx, created.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Consumed || first.AccessCount != 1 {
		t.Errorf("expected first consume to land with count 1, got %+v", first)
	}

	second, err := d.ConsumeMagicLink(ctx, created.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Consumed || second.AccessCount != 2 {
		t.Errorf("expected second consume to land with count 2, got %+v", second)
	}

	// The budget is spent; the compare-and-increment must refuse without
	// erroring, reporting the counter it lost to.
	third, err := d.ConsumeMagicLink(ctx, created.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if third.Consumed {
		t.Error("expected third consume to lose")
	}
	if third.AccessCount != 2 {
		t.Errorf("expected counter to stay at 2, got %d", third.AccessCount)
	}

	stored, err := d.MagicLinkByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.LastAccessed.Valid {
		t.Error("expected lastAccessed to be stamped")
	}
	if got := stored.State(now); got != models.MagicLinkAccessLimitReached {
		t.Errorf("expected access_limit_reached, got %s", got)
	}
}

func TestDAOConsumeMagicLinkUnlimited(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	link := testMagicLink("daotest-unlimited-"+suffix, now, 0)
	created, err := d.CreateMagicLink(ctx, link)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(1); i <= 3; i++ {
		result, err := d.ConsumeMagicLink(ctx, created.ID, now)
		if err != nil {
			t.Fatal(err)
		}
		if !result.Consumed || result.AccessCount != i {
			t.Errorf("expected uncapped consume %d to land, got %+v", i, result)
		}
	}
}

func TestDAOConsumeMagicLinkConcurrent(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	link := testMagicLink("daotest-race-"+suffix, now, 1)
	created, err := d.CreateMagicLink(ctx, link)
	if err != nil {
		t.Fatal(err)
	}

	// Two bearers race for the last access; exactly one may win.
	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := d.ConsumeMagicLink(ctx, created.ID, now)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = result.Consumed
		}(i)
	}
	wg.Wait()
	wins := 0
	for _, won := range results {
		if won {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one consume to win, got %d", wins)
	}
}

func TestDAOConsumeMagicLinkMissing(t *testing.T) {
	d := testDAO(t)
	_, err := d.ConsumeMagicLink(context.Background(), "00000000-0000-0000-0000-000000000000", time.Now().UTC())
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown link, got %v", err)
	}
}

func TestDAOSetMagicLinkActive(t *testing.T) {
	d := testDAO(t)
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := strconv.Itoa(now.Nanosecond())
	link := testMagicLink("daotest-deactivate-"+suffix, now, 0)
	created, err := d.CreateMagicLink(ctx, link)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SetMagicLinkActive(ctx, created.ID, false); err != nil {
		t.Fatal(err)
	}
	stored, err := d.MagicLinkByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsActive {
		t.Error("expected link to be inactive")
	}
	if got := stored.State(now); got != models.MagicLinkDeactivated {
		t.Errorf("expected deactivated state, got %s", got)
	}

	// Deactivated links cannot be consumed.
	result, err := d.ConsumeMagicLink(ctx, created.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if result.Consumed {
		t.Error("expected consume of deactivated link to refuse")
	}

	// Repeating the deactivate succeeds.
	if err := d.SetMagicLinkActive(ctx, created.ID, false); err != nil {
		t.Errorf("expected repeated deactivate to succeed: %v", err)
	}

	// Unknown links surface as sql.ErrNoRows for the manager to map.
	if err := d.SetMagicLinkActive(ctx, "00000000-0000-0000-0000-000000000000", false); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown link, got %v", err)
	}
}
