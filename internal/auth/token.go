package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Intent tags a token with its single allowed purpose. The value is embedded
// in the signed claims, so an access token can never be replayed on the
// refresh or confirmation endpoints even though all three share one secret.
type Intent string

const (
	IntentAccess  Intent = "access"
	IntentRefresh Intent = "refresh"
	IntentConfirm Intent = "email_confirm"
)

// allowedAlgorithms is the closed set of signing algorithms the codec
// accepts. Anything else is rejected at construction time.
var allowedAlgorithms = map[string]bool{
	"HS256": true,
	"HS512": true,
}

// TokenCodec issues and verifies the three token kinds used by the API.
// Tokens are HMAC-signed JWTs with subject (sub), intent, issued-at and
// expiry claims. The codec is immutable after construction and safe for
// concurrent use.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ConfirmTTL time.Duration
}

// NewTokenCodec builds a codec from the signing configuration. The algorithm
// must be one of HS256/HS512; unknown values are a startup error, not a
// runtime fallback.
func NewTokenCodec(secret, algorithm string, accessTTL, refreshTTL, confirmTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token codec: empty signing secret")
	}
	if !allowedAlgorithms[algorithm] {
		return nil, fmt.Errorf("token codec: algorithm %q not allowed", algorithm)
	}
	return &TokenCodec{
		secret:     []byte(secret),
		method:     jwt.GetSigningMethod(algorithm),
		algorithm:  algorithm,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		ConfirmTTL: confirmTTL,
	}, nil
}

// newJTI returns a random token id. Without it two tokens issued for the
// same subject within one second would be byte-identical, and rotation
// works by comparing the stored refresh token verbatim.
func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue signs a token for the given subject and intent expiring after ttl.
// Every issued token carries a fresh random jti, so no two are equal.
func (c *TokenCodec) Issue(subject string, intent Intent, ttl time.Duration) (string, error) {
	jti, err := newJTI()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":    subject,
		"intent": string(intent),
		"jti":    jti,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// IssueAccess issues a short-lived access token for the subject.
func (c *TokenCodec) IssueAccess(subject string) (string, error) {
	return c.Issue(subject, IntentAccess, c.AccessTTL)
}

// IssueRefresh issues a long-lived refresh token for the subject.
func (c *TokenCodec) IssueRefresh(subject string) (string, error) {
	return c.Issue(subject, IntentRefresh, c.RefreshTTL)
}

// IssueConfirm issues a single-purpose email-confirmation token.
func (c *TokenCodec) IssueConfirm(subject string) (string, error) {
	return c.Issue(subject, IntentConfirm, c.ConfirmTTL)
}

// Verify checks signature and expiry and that the embedded intent matches
// the expected one, returning the token subject. Failures map onto the
// package sentinels: ErrTokenExpired for expiry, ErrTokenIntentMismatch for
// a wrong intent on an otherwise valid token, ErrTokenInvalid for anything
// malformed or signed with the wrong key or algorithm.
func (c *TokenCodec) Verify(tokenString string, expected Intent) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.algorithm}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", ErrTokenInvalid
	}
	intent, _ := claims["intent"].(string)
	if Intent(intent) != expected {
		return "", ErrTokenIntentMismatch
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
