package capability

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

var testBase = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func testManager(persister Persister, opts ...Opt) *Manager {
	engine := crypto.NewEngine(crypto.WithKeyCache(8))
	base := []Opt{WithClock(func() time.Time { return testBase })}
	return NewManager(persister, engine, append(base, opts...)...)
}

func validInput() CreateInput {
	return CreateInput{
		FamilyID:       "fam1",
		ChildID:        "child1",
		ProviderName:   "Dr. Osei",
		ProviderEmail:  "osei@clinic.example",
		Permissions:    models.NewPermissionSet(models.PermissionRead, models.PermissionViewSymptoms),
		ExpiresAt:      testBase.Add(72 * time.Hour),
		MaxAccessCount: 3,
		CreatedBy:      "parent-1",
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	m := testManager(NewFakePersister())
	ctx := context.Background()

	past := validInput()
	past.ExpiresAt = testBase.Add(-time.Minute)
	if _, err := m.Create(ctx, past); err != ErrInvalidInput {
		t.Errorf("past expiry: expected ErrInvalidInput, got %v", err)
	}

	atNow := validInput()
	atNow.ExpiresAt = testBase
	if _, err := m.Create(ctx, atNow); err != ErrInvalidInput {
		t.Errorf("expiry at now: expected ErrInvalidInput, got %v", err)
	}

	negative := validInput()
	negative.MaxAccessCount = -1
	if _, err := m.Create(ctx, negative); err != ErrInvalidInput {
		t.Errorf("negative limit: expected ErrInvalidInput, got %v", err)
	}

	empty := validInput()
	empty.Permissions = models.PermissionSet{}
	if _, err := m.Create(ctx, empty); err != ErrInvalidInput {
		t.Errorf("no permissions: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateIssuesActiveLink(t *testing.T) {
	persister := NewFakePersister()
	m := testManager(persister)
	link, err := m.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(link.Token) != 48 {
		t.Errorf("token length %d, want 48", len(link.Token))
	}
	for _, c := range link.Token {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", c) {
			t.Errorf("token contains %q", c)
		}
	}
	if !link.IsActive || link.AccessCount != 0 || link.LastAccessed.Valid {
		t.Errorf("fresh link in wrong state: %+v", link)
	}
	if got := link.State(testBase); got != models.MagicLinkActive {
		t.Errorf("fresh link state %s", got)
	}
	if _, ok := persister.Stored(link.ID); !ok {
		t.Error("link was not persisted")
	}
}

func TestValidateAndConsumeSequentialBudget(t *testing.T) {
	m := testManager(NewFakePersister())
	ctx := context.Background()
	link, err := m.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 1; i <= 3; i++ {
		got, err := m.ValidateAndConsume(ctx, link.Token)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if got.Link.AccessCount != int64(i) {
			t.Errorf("consume %d: count %d", i, got.Link.AccessCount)
		}
		if !got.Permissions.Has(models.PermissionViewSymptoms) {
			t.Errorf("consume %d: permissions %v", i, got.Permissions.Strings())
		}
		if !got.Link.LastAccessed.Valid {
			t.Errorf("consume %d: lastAccessed not stamped", i)
		}
	}

	if _, err := m.ValidateAndConsume(ctx, link.Token); err != ErrCapabilityLimitReached {
		t.Errorf("fourth consume: expected ErrCapabilityLimitReached, got %v", err)
	}
	if current, ok := m.persister.(*FakePersister).Stored(link.ID); !ok || current.AccessCount != 3 {
		t.Errorf("counter moved past the limit: %+v", current)
	}
}

func TestValidateAndConsumeConcurrentBudget(t *testing.T) {
	m := testManager(NewFakePersister())
	ctx := context.Background()
	link, err := m.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const bearers = 10
	var wg sync.WaitGroup
	errs := make([]error, bearers)
	for i := 0; i < bearers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.ValidateAndConsume(ctx, link.Token)
		}(i)
	}
	wg.Wait()

	var successes, limited int
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case ErrCapabilityLimitReached:
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 3 || limited != 7 {
		t.Errorf("expected exactly 3 successes and 7 limit denials, got %d/%d", successes, limited)
	}
	if current, _ := m.persister.(*FakePersister).Stored(link.ID); current.AccessCount != 3 {
		t.Errorf("final counter %d, want 3", current.AccessCount)
	}
}

func TestConsumeDenialPrecedence(t *testing.T) {
	persister := NewFakePersister()
	m := testManager(persister)
	ctx := context.Background()
	link, err := m.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// a link that is deactivated, expired and over its limit all at once
	// reports deactivation, the most permanent of the three
	worst := link
	worst.IsActive = false
	worst.ExpiresAt = testBase.Add(-time.Hour)
	worst.AccessCount = 99
	if _, err := persister.CreateMagicLink(ctx, worst); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := m.ValidateAndConsume(ctx, link.Token); err != ErrCapabilityRevoked {
		t.Errorf("expected ErrCapabilityRevoked, got %v", err)
	}
}

func TestConsumeExpiredLink(t *testing.T) {
	persister := NewFakePersister()
	current := testBase
	engine := crypto.NewEngine(crypto.WithKeyCache(8))
	m := NewManager(persister, engine, WithClock(func() time.Time { return current }))
	ctx := context.Background()
	input := validInput()
	input.ExpiresAt = testBase.Add(time.Minute)
	link, err := m.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// past expiry the link denies without touching the counter
	current = current.Add(2 * time.Minute)
	if _, err := m.ValidateAndConsume(ctx, link.Token); err != ErrCapabilityExpired {
		t.Errorf("expected ErrCapabilityExpired, got %v", err)
	}
	if stored, _ := persister.Stored(link.ID); stored.AccessCount != 0 {
		t.Errorf("expired consume moved the counter to %d", stored.AccessCount)
	}
}

func TestValidateDoesNotConsume(t *testing.T) {
	persister := NewFakePersister()
	m := testManager(persister)
	ctx := context.Background()
	link, err := m.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := m.Validate(ctx, link.Token); err != nil {
			t.Fatalf("validate %d: %v", i, err)
		}
	}
	if current, _ := persister.Stored(link.ID); current.AccessCount != 0 {
		t.Errorf("validate consumed accesses: count %d", current.AccessCount)
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	m := testManager(NewFakePersister())
	ctx := context.Background()
	link, err := m.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Deactivate(ctx, link.ID); err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	if err := m.Deactivate(ctx, link.ID); err != nil {
		t.Errorf("second deactivate should succeed, got %v", err)
	}
	if _, err := m.ValidateAndConsume(ctx, link.Token); err != ErrCapabilityRevoked {
		t.Errorf("expected ErrCapabilityRevoked after deactivation, got %v", err)
	}
}

func TestDeactivateUnknownLink(t *testing.T) {
	m := testManager(NewFakePersister())
	if err := m.Deactivate(context.Background(), "no-such-id"); err != ErrLinkNotFound {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestUnknownTokenDenies(t *testing.T) {
	m := testManager(NewFakePersister())
	if _, err := m.ValidateAndConsume(context.Background(), "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"); err != ErrLinkNotFound {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
	if _, err := m.ValidateAndConsume(context.Background(), ""); err != ErrLinkNotFound {
		t.Errorf("empty token: expected ErrLinkNotFound, got %v", err)
	}
}

func TestNotesSealedAtRestAndReturned(t *testing.T) {
	persister := NewFakePersister()
	m := testManager(persister, WithNotesSecret("at-rest-secret"))
	ctx := context.Background()
	input := validInput()
	input.Notes = "Flare started Tuesday; bring the medication diary."

	link, err := m.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, _ := persister.Stored(link.ID)
	if !stored.EncryptedNotes.Valid {
		t.Fatal("notes were not stored")
	}
	if strings.Contains(stored.EncryptedNotes.String, "medication diary") {
		t.Error("notes stored in the clear")
	}

	got, err := m.ValidateAndConsume(ctx, link.Token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.Notes != input.Notes {
		t.Errorf("notes round trip mismatch: %q", got.Notes)
	}
}

func TestNotesWithoutSecretRefused(t *testing.T) {
	m := testManager(NewFakePersister())
	input := validInput()
	input.Notes = "should not be storable"
	if _, err := m.Create(context.Background(), input); err != ErrSealingUnavailable {
		t.Errorf("expected ErrSealingUnavailable, got %v", err)
	}
}

func TestReasonForMapping(t *testing.T) {
	cases := []struct {
		err  error
		want models.DenialReason
	}{
		{nil, models.DenialNone},
		{ErrCapabilityRevoked, models.DenialCapabilityRevoked},
		{ErrLinkNotFound, models.DenialCapabilityRevoked},
		{ErrCapabilityExpired, models.DenialCapabilityExpired},
		{ErrCapabilityLimitReached, models.DenialCapabilityLimitReached},
		{Error("capability: weird"), models.DenialCollaboratorUnavailable},
	}
	for _, c := range cases {
		if got := ReasonFor(c.err); got != c.want {
			t.Errorf("ReasonFor(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}
