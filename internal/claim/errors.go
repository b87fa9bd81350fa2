package claim

import "errors"

// Errors raised before the store is consulted. Store-level claim errors
// (ErrAlreadyClaimed, ErrItemNotFound, ...) pass through from the store
// package unwrapped so callers can classify everything with errors.Is.
var (
	// ErrInvalidCode means normalization produced an empty canonical key:
	// there is no extractable code in the scanned input.
	ErrInvalidCode = errors.New("no code in scanned input")

	// ErrUnauthenticated means there is no valid user session.
	ErrUnauthenticated = errors.New("not authenticated")
)
