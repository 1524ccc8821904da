package repository

import "errors"

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when a conditional write finds the record in an unexpected state.
	ErrConflict = errors.New("record state changed concurrently")
	// ErrLedgerBound is returned when completing a payment would exceed the booking total.
	ErrLedgerBound = errors.New("completed payments would exceed booking total")
)
