// Package service contains the authentication core: credential checks,
// token issuance and rotation, the email-confirmation flow and the
// cache-first identity resolution used by the request middleware.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/cache"
	"github.com/iliyamo/contact-book-api/internal/model"
	"github.com/iliyamo/contact-book-api/internal/queue"
	"github.com/iliyamo/contact-book-api/internal/utils"
)

// UserStore is the persistence surface the auth service depends on. It is
// implemented by repository.UserRepo and by fakes in tests.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, role model.Role) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (*model.User, error)
}

// EmailSender hands a confirmation event to the outbound email collaborator.
type EmailSender interface {
	PublishEmailConfirm(ctx context.Context, event queue.EmailConfirmEvent) error
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService orchestrates hashing, the token codec, the identity cache and
// the user store to answer "is this login valid" and "who is making this
// request".
type AuthService struct {
	codec       *auth.TokenCodec
	users       UserStore
	identities  cache.Identity
	sender      EmailSender
	bcryptCost  int
	identityTTL time.Duration
}

// NewAuthService wires the service. identityTTL bounds how long a resolved
// identity may be served from cache; values <= 0 fall back to five minutes.
func NewAuthService(codec *auth.TokenCodec, users UserStore, identities cache.Identity, sender EmailSender, bcryptCost int, identityTTL time.Duration) *AuthService {
	if identityTTL <= 0 {
		identityTTL = 5 * time.Minute
	}
	return &AuthService{
		codec:       codec,
		users:       users,
		identities:  identities,
		sender:      sender,
		bcryptCost:  bcryptCost,
		identityTTL: identityTTL,
	}
}

// ConfirmPath is the URL path segment, relative to the request base URL,
// under which confirmation tokens are redeemed.
const ConfirmPath = "/api/auth/confirmed_email/"

func confirmURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + ConfirmPath + token
}

// Register creates an unconfirmed account with the default role and queues
// the confirmation email. A duplicate email surfaces as
// auth.ErrAccountExists; that conflict is the only thing the signup path
// reveals about existing addresses.
func (s *AuthService) Register(ctx context.Context, username, email, password, baseURL string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	id, err := s.users.Create(ctx, username, email, hash, model.RoleUser)
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: id, Username: username, Email: email, Role: model.RoleUser}
	s.queueConfirmation(ctx, u, baseURL)
	return u, nil
}

// queueConfirmation issues a confirm-intent token and publishes the email
// event. Delivery is best-effort: a broker outage must not fail signup, the
// user can re-request the email later.
func (s *AuthService) queueConfirmation(ctx context.Context, u *model.User, baseURL string) {
	token, err := s.codec.IssueConfirm(u.Email)
	if err != nil {
		log.Printf("auth: issue confirmation token for %s failed: %v", u.Email, err)
		return
	}
	ev := queue.EmailConfirmEvent{
		Email:      u.Email,
		Username:   u.Username,
		ConfirmURL: confirmURL(baseURL, token),
		QueuedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.sender.PublishEmailConfirm(ctx, ev); err != nil {
		log.Printf("auth: queue confirmation email for %s failed: %v", u.Email, err)
	}
}

// Login checks the credentials and returns a fresh access/refresh pair. The
// new refresh token replaces the stored one, and the identity cache is
// primed for the upcoming requests.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.Confirmed {
		return nil, auth.ErrEmailNotConfirmed
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, auth.ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := s.identities.Set(ctx, u.Email, u, s.identityTTL); err != nil {
		log.Printf("auth: cache identity for %s failed: %v", u.Email, err)
	}
	return pair, nil
}

func (s *AuthService) issuePair(ctx context.Context, u *model.User) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(u.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefresh(u.Email)
	if err != nil {
		return nil, err
	}
	// Persisting the refresh token and returning it happen on the same
	// call boundary; a failed write means no token reaches the client.
	if err := s.users.UpdateRefreshToken(ctx, u.ID, &refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = &refresh
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// ResolveCurrentUser turns a bearer access token into the account making
// the request. Cache hits skip the database entirely; misses load the user
// and prime the cache with the configured TTL.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, bearer string) (*model.User, error) {
	email, err := s.codec.Verify(bearer, auth.IntentAccess)
	if err != nil {
		return nil, err
	}
	if u, ok, err := s.identities.Get(ctx, email); err == nil && ok {
		return u, nil
	} else if err != nil {
		log.Printf("auth: identity cache read for %s failed: %v", email, err)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.identities.Set(ctx, email, u, s.identityTTL); err != nil {
		log.Printf("auth: cache identity for %s failed: %v", email, err)
	}
	return u, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
// The presented token must match the stored one verbatim; on mismatch the
// stored token is cleared so every outstanding session is forced back
// through login. On success the stored token is rotated, which makes the
// presented one single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.codec.Verify(refreshToken, auth.IntentRefresh)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		if err := s.users.UpdateRefreshToken(ctx, u.ID, nil); err != nil {
			return nil, err
		}
		return nil, auth.ErrRefreshRevoked
	}
	return s.issuePair(ctx, u)
}

// ConfirmEmail redeems a confirmation token. The first call flips the
// account to confirmed; repeated calls are a no-op reported through
// alreadyConfirmed so the handler can phrase the response accordingly.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	email, err := s.codec.Verify(token, auth.IntentConfirm)
	if err != nil {
		return false, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return false, auth.ErrVerification
		}
		return false, err
	}
	if u.Confirmed {
		return true, nil
	}
	if err := s.users.ConfirmEmail(ctx, email); err != nil {
		return false, err
	}
	// Drop any cached pre-confirmation identity.
	if err := s.identities.Invalidate(ctx, email); err != nil {
		log.Printf("auth: invalidate identity for %s failed: %v", email, err)
	}
	return false, nil
}

// RequestConfirmation re-queues the confirmation email for an unconfirmed
// account. Unknown addresses are reported exactly like known ones so the
// endpoint cannot be used to probe for accounts.
func (s *AuthService) RequestConfirmation(ctx context.Context, email, baseURL string) (alreadyConfirmed bool, err error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if u.Confirmed {
		return true, nil
	}
	s.queueConfirmation(ctx, u, baseURL)
	return false, nil
}

// UpdateAvatar persists a new avatar URL and rewrites the cached identity
// under the same key so subsequent resolves see the change immediately.
func (s *AuthService) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	u, err := s.users.UpdateAvatar(ctx, email, url)
	if err != nil {
		return nil, err
	}
	if err := s.identities.Set(ctx, u.Email, u, s.identityTTL); err != nil {
		log.Printf("auth: cache identity for %s failed: %v", u.Email, err)
	}
	return u, nil
}
