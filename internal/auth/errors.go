// Package auth implements the token codec and defines the error taxonomy of
// the authentication core. The sentinel values below are matched with
// errors.Is by the service and handler layers; none of them is ever
// swallowed on the way to the request boundary.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when no account exists for an email.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailNotConfirmed is returned on login before the confirmation
	// flow completed.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrAccountExists is returned on signup with an already registered
	// email. This is the only existence signal the signup path may leak.
	ErrAccountExists = errors.New("account already exists")

	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned for structurally valid tokens past
	// their expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenIntentMismatch is returned when a token of one intent is
	// presented where another is required, e.g. an access token on the
	// refresh endpoint.
	ErrTokenIntentMismatch = errors.New("token intent mismatch")

	// ErrRefreshRevoked is returned when a presented refresh token does
	// not match the stored one. The stored token is cleared at the same
	// time, forcing a fresh login.
	ErrRefreshRevoked = errors.New("refresh token revoked")

	// ErrVerification is returned when an email-confirmation token does
	// not resolve to a known account.
	ErrVerification = errors.New("verification error")
)
