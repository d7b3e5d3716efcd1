package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/cache"
	"github.com/iliyamo/contact-book-api/internal/model"
	"github.com/iliyamo/contact-book-api/internal/queue"
	"github.com/iliyamo/contact-book-api/internal/utils"
)

// fakeUserStore is an in-memory UserStore keyed by normalized email. It
// counts GetByEmail calls so tests can assert the cache-first behavior.
type fakeUserStore struct {
	users      map[string]*model.User
	nextID     uint64
	getCalls   int
	failCreate error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}, nextID: 1}
}

func (f *fakeUserStore) add(u *model.User) *model.User {
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.users[model.NormalizeEmail(u.Email)] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, username, email, passwordHash string, role model.Role) (uint64, error) {
	if f.failCreate != nil {
		return 0, f.failCreate
	}
	email = model.NormalizeEmail(email)
	if _, ok := f.users[email]; ok {
		return 0, auth.ErrAccountExists
	}
	u := f.add(&model.User{Username: username, Email: email, PasswordHash: passwordHash, Role: role})
	return u.ID, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.getCalls++
	u, ok := f.users[model.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdateRefreshToken(_ context.Context, userID uint64, token *string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.RefreshToken = token
			return nil
		}
	}
	return auth.ErrUserNotFound
}

func (f *fakeUserStore) ConfirmEmail(_ context.Context, email string) error {
	if u, ok := f.users[model.NormalizeEmail(email)]; ok {
		u.Confirmed = true
	}
	return nil
}

func (f *fakeUserStore) UpdateAvatar(_ context.Context, email, url string) (*model.User, error) {
	u, ok := f.users[model.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u.AvatarURL = &url
	cp := *u
	return &cp, nil
}

// fakeSender records published confirmation events.
type fakeSender struct{ events []queue.EmailConfirmEvent }

func (f *fakeSender) PublishEmailConfirm(_ context.Context, ev queue.EmailConfirmEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fixture struct {
	svc    *AuthService
	store  *fakeUserStore
	cache  *cache.MemoryIdentity
	sender *fakeSender
	codec  *auth.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := auth.NewTokenCodec("unit-test-secret", "HS256", 15*time.Minute, 7*24*time.Hour, 12*time.Hour)
	require.NoError(t, err)
	store := newFakeUserStore()
	idc := cache.NewMemoryIdentity()
	sender := &fakeSender{}
	return &fixture{
		svc:    NewAuthService(codec, store, idc, sender, 4, 5*time.Minute),
		store:  store,
		cache:  idc,
		sender: sender,
		codec:  codec,
	}
}

func (fx *fixture) seedUser(t *testing.T, email, password string, confirmed bool) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return fx.store.add(&model.User{
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Confirmed:    confirmed,
	})
}

func TestRegisterQueuesConfirmationEmail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	u, err := fx.svc.Register(ctx, "alice", "Alice@Example.com", "pw12345", "http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.False(t, u.Confirmed)

	require.Len(t, fx.sender.events, 1)
	ev := fx.sender.events[0]
	assert.Equal(t, "alice@example.com", ev.Email)
	assert.Equal(t, "alice", ev.Username)
	require.True(t, strings.HasPrefix(ev.ConfirmURL, "http://localhost:8080"+ConfirmPath))

	// The embedded token must redeem as a confirm-intent token.
	token := strings.TrimPrefix(ev.ConfirmURL, "http://localhost:8080"+ConfirmPath)
	sub, err := fx.codec.Verify(token, auth.IntentConfirm)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedUser(t, "alice@example.com", "pw", true)

	_, err := fx.svc.Register(ctx, "alice2", "alice@example.com", "pw2", "http://localhost")
	assert.ErrorIs(t, err, auth.ErrAccountExists)
	assert.Empty(t, fx.sender.events)
}

func TestLoginSuccess(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "correct horse", true)

	pair, err := fx.svc.Login(ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	// The refresh token is mirrored on the stored account for revocation.
	require.NotNil(t, fx.store.users[u.Email].RefreshToken)
	assert.Equal(t, pair.RefreshToken, *fx.store.users[u.Email].RefreshToken)

	// Login primes the identity cache.
	cached, ok, err := fx.cache.Get(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u.ID, cached.ID)
}

func TestLoginFailures(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedUser(t, "confirmed@example.com", "right", true)
	fx.seedUser(t, "pending@example.com", "right", false)

	_, err := fx.svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = fx.svc.Login(ctx, "pending@example.com", "right")
	assert.ErrorIs(t, err, auth.ErrEmailNotConfirmed)

	_, err = fx.svc.Login(ctx, "confirmed@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestResolveCurrentUserCacheFirst(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", true)

	access, err := fx.codec.IssueAccess(u.Email)
	require.NoError(t, err)

	got, err := fx.svc.ResolveCurrentUser(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, fx.store.getCalls)

	// Second resolve within the TTL is served from cache.
	got, err = fx.svc.ResolveCurrentUser(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, fx.store.getCalls, "cache hit must not touch the store")

	// After the cached entry is gone a new lookup happens.
	require.NoError(t, fx.cache.Invalidate(ctx, u.Email))
	_, err = fx.svc.ResolveCurrentUser(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, 2, fx.store.getCalls)
}

func TestResolveCurrentUserRejectsBadTokens(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", true)

	_, err := fx.svc.ResolveCurrentUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	refresh, err := fx.codec.IssueRefresh(u.Email)
	require.NoError(t, err)
	_, err = fx.svc.ResolveCurrentUser(ctx, refresh)
	assert.ErrorIs(t, err, auth.ErrTokenIntentMismatch)

	access, err := fx.codec.IssueAccess("ghost@example.com")
	require.NoError(t, err)
	_, err = fx.svc.ResolveCurrentUser(ctx, access)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRefreshRotatesToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", true)

	first, err := fx.svc.Login(ctx, u.Email, "pw")
	require.NoError(t, err)

	second, err := fx.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, *fx.store.users[u.Email].RefreshToken)

	// Replaying the first refresh token must fail and clear the stored one.
	_, err = fx.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshRevoked)
	assert.Nil(t, fx.store.users[u.Email].RefreshToken)

	// With the stored token cleared even the latest pair is dead.
	_, err = fx.svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshRevoked)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", true)

	access, err := fx.codec.IssueAccess(u.Email)
	require.NoError(t, err)

	_, err = fx.svc.Refresh(ctx, access)
	assert.ErrorIs(t, err, auth.ErrTokenIntentMismatch)
}

func TestConfirmEmailIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", false)

	token, err := fx.codec.IssueConfirm(u.Email)
	require.NoError(t, err)

	already, err := fx.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, fx.store.users[u.Email].Confirmed)

	already, err = fx.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already, "second redemption is a no-op, not an error")
}

func TestConfirmEmailUnknownAccount(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	token, err := fx.codec.IssueConfirm("ghost@example.com")
	require.NoError(t, err)

	_, err = fx.svc.ConfirmEmail(ctx, token)
	assert.ErrorIs(t, err, auth.ErrVerification)
}

func TestConfirmEmailRejectsOtherIntents(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", false)

	access, err := fx.codec.IssueAccess(u.Email)
	require.NoError(t, err)

	_, err = fx.svc.ConfirmEmail(ctx, access)
	assert.ErrorIs(t, err, auth.ErrTokenIntentMismatch)
	assert.False(t, fx.store.users[u.Email].Confirmed)
}

func TestRequestConfirmation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedUser(t, "pending@example.com", "pw", false)
	fx.seedUser(t, "done@example.com", "pw", true)

	already, err := fx.svc.RequestConfirmation(ctx, "pending@example.com", "http://localhost")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Len(t, fx.sender.events, 1)

	already, err = fx.svc.RequestConfirmation(ctx, "done@example.com", "http://localhost")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Len(t, fx.sender.events, 1)

	// Unknown address answers exactly like an unconfirmed one.
	already, err = fx.svc.RequestConfirmation(ctx, "ghost@example.com", "http://localhost")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Len(t, fx.sender.events, 1)
}

func TestUpdateAvatarRewritesCache(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u := fx.seedUser(t, "alice@example.com", "pw", true)

	got, err := fx.svc.UpdateAvatar(ctx, u.Email, "https://img.example.com/alice.png")
	require.NoError(t, err)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, "https://img.example.com/alice.png", *got.AvatarURL)

	cached, ok, err := fx.cache.Get(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, cached.AvatarURL)
	assert.Equal(t, "https://img.example.com/alice.png", *cached.AvatarURL)
}
