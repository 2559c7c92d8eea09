package applicationdb

import "errors"

var (
	// ErrNotFound is returned when an application or event does not exist for the caller.
	ErrNotFound = errors.New("record not found")
	// ErrNoRowsAffected is returned when an UPDATE or DELETE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
