package ledger

import "errors"

var (
	// ErrNotFound is returned when a document id has no record in a collection.
	ErrNotFound = errors.New("ledger: document not found")

	// ErrConflict is returned when an atomic unit keeps colliding with
	// concurrent writers after the driver's retry budget is spent.
	ErrConflict = errors.New("ledger: transaction conflict")

	// ErrUnavailable is returned when the store cannot be reached at all.
	ErrUnavailable = errors.New("ledger: unavailable")
)
