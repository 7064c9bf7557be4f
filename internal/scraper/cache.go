package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// MarkupCache keeps recently fetched pages so a cycle can re-analyze without
// fetching again.
type MarkupCache interface {
	Put(ctx context.Context, matchID, markup string) (models.Snapshot, error)
	Get(ctx context.Context, id string) (models.Snapshot, bool, error)
	Latest(ctx context.Context, matchID string) (models.Snapshot, bool, error)
}

// MemoryCache is an in-process MarkupCache with a fixed time to live.
// Expired entries are invisible to readers and removed by Sweep.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]models.Snapshot
	latest  map[string]string
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]models.Snapshot),
		latest:  make(map[string]string),
	}
}

func (c *MemoryCache) Put(_ context.Context, matchID, markup string) (models.Snapshot, error) {
	s := models.Snapshot{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		Markup:    markup,
		FetchedAt: c.now(),
	}
	c.mu.Lock()
	c.entries[s.ID] = s
	c.latest[matchID] = s.ID
	c.mu.Unlock()
	return s, nil
}

func (c *MemoryCache) Get(_ context.Context, id string) (models.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[id]
	if !ok || c.expired(s) {
		return models.Snapshot{}, false, nil
	}
	return s, true, nil
}

func (c *MemoryCache) Latest(ctx context.Context, matchID string) (models.Snapshot, bool, error) {
	c.mu.RLock()
	id, ok := c.latest[matchID]
	c.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, false, nil
	}
	return c.Get(ctx, id)
}

// Sweep drops expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, s := range c.entries {
		if !c.expired(s) {
			continue
		}
		delete(c.entries, id)
		if c.latest[s.MatchID] == id {
			delete(c.latest, s.MatchID)
		}
		removed++
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(s models.Snapshot) bool {
	return c.now().Sub(s.FetchedAt) >= c.ttl
}
