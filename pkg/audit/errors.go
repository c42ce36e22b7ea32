package audit

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrProofMismatch means a recipient's proof does not lead to the published root.
	ErrProofMismatch = errors.New("proof does not match merkle root")

	// ErrRootMismatch means the root rebuilt from all recipients differs from the published one.
	ErrRootMismatch = errors.New("reconstructed root does not match merkle root")

	// ErrTotalMismatch means tokenTotal differs from the sum of recipient amounts.
	ErrTotalMismatch = errors.New("token total does not match recipient amounts")

	// ErrIndexCoverage means recipient indices are not exactly 0..n-1.
	ErrIndexCoverage = errors.New("recipient indices are not a permutation of 0..n-1")
)

// ProofMismatchError identifies the recipient whose proof failed.
type ProofMismatchError struct {
	Address string
	Index   uint64
}

func (e *ProofMismatchError) Error() string {
	return fmt.Sprintf("%s: index %d, account %s", ErrProofMismatch, e.Index, e.Address)
}

func (e *ProofMismatchError) Unwrap() error { return ErrProofMismatch }

// RootMismatchError carries both roots of a failed reconstruction.
type RootMismatchError struct {
	Published     common.Hash
	Reconstructed common.Hash
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("%s: published %s, reconstructed %s", ErrRootMismatch, e.Published.Hex(), e.Reconstructed.Hex())
}

func (e *RootMismatchError) Unwrap() error { return ErrRootMismatch }
