// Package repository contains the data access layer. Sentinel errors let
// handlers distinguish failure scenarios without inspecting SQL errors.
package repository

import "errors"

// ErrContactNotFound is returned when a contact does not exist for the
// requesting owner. Ownership mismatches deliberately surface as this same
// value: a contact belonging to someone else must be indistinguishable from
// one that does not exist, so handlers render both as HTTP 404.
var ErrContactNotFound = errors.New("contact not found")
