package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contact-book-api/internal/model"
)

func TestIdentityKeyNormalizesEmail(t *testing.T) {
	assert.Equal(t, identityKey("alice@example.com"), identityKey("  Alice@Example.COM "))
}

func TestMemoryIdentitySetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryIdentity()

	_, ok, err := c.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	u := &model.User{ID: 7, Email: "alice@example.com", Role: model.RoleUser, Confirmed: true}
	require.NoError(t, c.Set(ctx, "Alice@Example.com", u, time.Minute))

	got, ok, err := c.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(7), got.ID)

	// The cache hands back a copy, not the shared record.
	got.Email = "mutated@example.com"
	again, ok, err := c.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", again.Email)

	require.NoError(t, c.Invalidate(ctx, "ALICE@example.com"))
	_, ok, err = c.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryIdentityExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryIdentity()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	u := &model.User{ID: 1, Email: "bob@example.com"}
	require.NoError(t, c.Set(ctx, u.Email, u, 5*time.Minute))

	now = now.Add(4 * time.Minute)
	_, ok, err := c.Get(ctx, u.Email)
	require.NoError(t, err)
	assert.True(t, ok, "entry should survive inside the TTL")

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, u.Email)
	require.NoError(t, err)
	assert.False(t, ok, "entry must not outlive its TTL")
}
