package portfolio

import (
	"context"
	"sync"

	"github.com/vadiminshakov/purse/internal/domain"
)

// BalanceCache keeps the raw balances of every account fetched during the process lifetime.
// Entries never expire; Invalidate and Clear drop them explicitly.
type BalanceCache struct {
	mu      sync.Mutex
	entries map[domain.AccountID]domain.Balances
	// fetching serializes read-then-fetch per account so a miss triggers at most one fetch.
	fetching map[domain.AccountID]*sync.Mutex
}

// NewBalanceCache creates an empty cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{
		entries:  make(map[domain.AccountID]domain.Balances),
		fetching: make(map[domain.AccountID]*sync.Mutex),
	}
}

// Get returns the cached balances of id.
func (c *BalanceCache) Get(id domain.AccountID) (domain.Balances, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.entries[id]
	return b.Clone(), ok
}

// GetOrFetch returns the cached balances of id, calling fetch and storing its result on a miss.
// fetched reports whether fetch was called. A failed fetch leaves the cache untouched.
func (c *BalanceCache) GetOrFetch(
	ctx context.Context,
	id domain.AccountID,
	fetch func(ctx context.Context) (domain.Balances, error),
) (balances domain.Balances, fetched bool, err error) {
	lock := c.accountLock(id)
	lock.Lock()
	defer lock.Unlock()

	if b, ok := c.Get(id); ok {
		return b, false, nil
	}

	b, err := fetch(ctx)
	if err != nil {
		return nil, true, err
	}

	c.mu.Lock()
	c.entries[id] = b.Clone()
	c.mu.Unlock()

	return b, true, nil
}

// Invalidate drops the entry of id.
func (c *BalanceCache) Invalidate(id domain.AccountID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
}

// InvalidateMatching drops every entry inside target and returns how many were dropped.
func (c *BalanceCache) InvalidateMatching(target domain.Target) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id := range c.entries {
		if target.Matches(id) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (c *BalanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[domain.AccountID]domain.Balances)
}

// Len returns the number of cached accounts.
func (c *BalanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *BalanceCache) accountLock(id domain.AccountID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.fetching[id]
	if !ok {
		lock = &sync.Mutex{}
		c.fetching[id] = lock
	}
	return lock
}
