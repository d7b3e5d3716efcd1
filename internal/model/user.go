package model

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of account roles. The database stores the string
// value; anything outside the three known roles is rejected at the boundary
// instead of being carried around as a loose string.
type Role string

const (
	RoleUser      Role = "user"      // default role for new signups
	RoleModerator Role = "moderator" // may list all contacts
	RoleAdmin     Role = "admin"     // may list all contacts
)

// ErrUnknownRole is returned by ParseRole for values outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalizes and validates a role string coming from the database
// or a request body.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrUnknownRole
}

// String returns the database representation of the role.
func (r Role) String() string { return string(r) }

// User represents an account record as stored in the `users` table.  Email
// is unique and lower-cased before every read or write.  RefreshToken holds
// the currently valid refresh token verbatim: a presented refresh token is
// only honored when it matches this column exactly, which is what makes
// rotation single-use.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – display name used in confirmation emails.
//  Email        – unique, case-normalized address; also the token subject.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of user/moderator/admin.
//  Confirmed    – flips to true exactly once via the email-confirmation flow.
//  RefreshToken – currently valid refresh token, nil when none is issued.
//  AvatarURL    – optional profile image URL, nil when unset.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Confirmed    bool
	RefreshToken *string
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowers and trims an address so lookups, cache keys and
// unique-constraint checks all agree on one representation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
