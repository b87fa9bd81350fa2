package store

import "errors"

// Claim errors. Callers classify with errors.Is; anything else coming out of
// the store is a wrapped transport or database error.
var (
	// ErrCodeNotFound means the canonical key has no registered code (and
	// unregistered claims are not allowed for the operation).
	ErrCodeNotFound = errors.New("qr code not found")

	// ErrAlreadyClaimed means the code lost a claim race: some other item
	// holds it. Callers should re-resolve rather than retry blindly.
	ErrAlreadyClaimed = errors.New("qr code already claimed")

	// ErrItemNotFound means the target item does not exist or is deleted.
	ErrItemNotFound = errors.New("item not found")

	// ErrOwnershipMismatch means the acting user does not own the item or
	// claim being mutated.
	ErrOwnershipMismatch = errors.New("item not owned by user")

	// ErrItemAlreadyLinked means the item already holds a different code;
	// an item carries at most one active claim.
	ErrItemAlreadyLinked = errors.New("item already has a claimed qr code")
)
