package cache

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/contact-book-api/internal/model"
)

// MemoryIdentity is an in-process Identity implementation used in tests and
// when the server starts without a reachable Redis. Expiry is checked lazily
// on Get; there is no background sweeper since the working set is tiny.
type MemoryIdentity struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	user      model.User
	expiresAt time.Time
}

func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryIdentity) Get(_ context.Context, email string) (*model.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[identityKey(email)]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, identityKey(email))
		return nil, false, nil
	}
	u := e.user // copy so callers cannot mutate the cached record
	return &u, true, nil
}

func (c *MemoryIdentity) Set(_ context.Context, email string, u *model.User, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identityKey(email)] = memoryEntry{user: *u, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryIdentity) Invalidate(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, identityKey(email))
	return nil
}
