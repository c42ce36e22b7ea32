package merkle

import "errors"

// Build-time failures. Any of these aborts tree construction; callers match
// them with errors.Is since they are always wrapped with entry context.
var (
	// ErrInvalidAddress is returned for text that is not a 20-byte hex address
	// or that carries a mixed-case checksum which does not validate.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrDuplicateEntry is returned when two entries share a canonical address.
	ErrDuplicateEntry = errors.New("duplicate address")

	// ErrNonPositiveAmount is returned for amounts that are zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrEncoding is returned when a field does not fit its fixed encoding width.
	ErrEncoding = errors.New("leaf encoding failed")

	// ErrEmptyTree is returned when asked to commit to zero entries.
	ErrEmptyTree = errors.New("cannot build merkle tree from empty entry list")

	// ErrProofNotFound is returned when the requested leaf is not part of the tree.
	ErrProofNotFound = errors.New("leaf not found in tree")
)
