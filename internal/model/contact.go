package model

import "time"

// Contact represents a row in the `contacts` table. Every contact belongs to
// exactly one owner (users.id); non-privileged queries must always carry an
// owner_id predicate so one tenant can never observe another tenant's rows.
//
// OwnerUsername and OwnerEmail are not columns of the contacts table; read
// queries join the users table to populate them so responses can carry an
// owner summary without a second lookup.
type Contact struct {
	ID             uint64
	OwnerID        uint64
	Firstname      string
	Lastname       string
	Email          string
	Phone          string
	Birthday       time.Time // calendar date, time part ignored
	AdditionalData string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	OwnerUsername string
	OwnerEmail    string
}
