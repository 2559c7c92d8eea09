package partydb

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when the partial unique index on active
	// memberships rejects a second active row for a user.
	ErrAlreadyMember = errors.New("user already has an active membership")
	// ErrInviteCodeTaken is returned when a generated invite code collides.
	ErrInviteCodeTaken = errors.New("invite code already in use")
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique violation,
// optionally on a specific constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Field('C') != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.Field('n') == constraint
}
