package capability

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
)

// FakePersister is an in-memory Persister for tests. Its consume path holds
// the same guarantee as the SQL implementation: the check and the increment
// happen under one lock, so concurrent consumers serialize.
type FakePersister struct {
	mu      sync.Mutex
	links   map[string]models.MagicLink
	byToken map[string]string
	Err     error
}

// NewFakePersister returns an empty FakePersister.
func NewFakePersister() *FakePersister {
	return &FakePersister{
		links:   make(map[string]models.MagicLink),
		byToken: make(map[string]string),
	}
}

// CreateMagicLink implements Persister.
func (f *FakePersister) CreateMagicLink(ctx context.Context, link models.MagicLink) (models.MagicLink, error) {
	if f.Err != nil {
		return models.MagicLink{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[link.ID] = link
	f.byToken[link.Token] = link.ID
	return link, nil
}

// MagicLinkByID implements Persister.
func (f *FakePersister) MagicLinkByID(ctx context.Context, id string) (models.MagicLink, error) {
	if f.Err != nil {
		return models.MagicLink{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[id]
	if !ok {
		return models.MagicLink{}, sql.ErrNoRows
	}
	return link, nil
}

// MagicLinkByToken implements Persister.
func (f *FakePersister) MagicLinkByToken(ctx context.Context, token string) (models.MagicLink, error) {
	if f.Err != nil {
		return models.MagicLink{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return models.MagicLink{}, sql.ErrNoRows
	}
	return f.links[id], nil
}

// ConsumeMagicLink implements Persister with compare-and-increment
// semantics.
func (f *FakePersister) ConsumeMagicLink(ctx context.Context, id string, now time.Time) (ConsumeResult, error) {
	if f.Err != nil {
		return ConsumeResult{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[id]
	if !ok {
		return ConsumeResult{}, sql.ErrNoRows
	}
	if !link.IsActive {
		return ConsumeResult{Consumed: false, AccessCount: link.AccessCount}, nil
	}
	if link.MaxAccessCount.Valid && link.AccessCount >= link.MaxAccessCount.Int64 {
		return ConsumeResult{Consumed: false, AccessCount: link.AccessCount}, nil
	}
	link.AccessCount++
	link.LastAccessed = sql.NullTime{Time: now, Valid: true}
	link.ModifiedDate = now
	f.links[id] = link
	return ConsumeResult{Consumed: true, AccessCount: link.AccessCount}, nil
}

// SetMagicLinkActive implements Persister.
func (f *FakePersister) SetMagicLinkActive(ctx context.Context, id string, active bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[id]
	if !ok {
		return sql.ErrNoRows
	}
	link.IsActive = active
	f.links[id] = link
	return nil
}

// Stored returns the current stored form of a link for assertions.
func (f *FakePersister) Stored(id string) (models.MagicLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[id]
	return link, ok
}
