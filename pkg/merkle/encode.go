package merkle

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
)

// leafLength is the size of abi.encodePacked(uint256, address, uint256).
const leafLength = 32 + common.AddressLength + 32

// hasher is stateless; every Hash call allocates its own sponge.
var hasher = keccak256.New()

// LeafHash computes the leaf digest of one (index, address, amount) triple:
//
//	keccak256(uint256(index) ‖ address ‖ uint256(amount))
//
// matching Solidity's keccak256(abi.encodePacked(index, account, amount)).
func LeafHash(index uint64, address common.Address, amount *big.Int) (common.Hash, error) {
	packed, err := encodeLeaf(index, address, amount)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hasher.Hash(packed)), nil
}

func encodeLeaf(index uint64, address common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil {
		return nil, fmt.Errorf("%w: nil amount", ErrEncoding)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %s", ErrEncoding, amount)
	}
	amt, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: amount %s exceeds 256 bits", ErrEncoding, amount)
	}

	idx := uint256.NewInt(index).Bytes32()
	val := amt.Bytes32()

	data := make([]byte, 0, leafLength)
	data = append(data, idx[:]...)
	data = append(data, address.Bytes()...)
	data = append(data, val[:]...)
	return data, nil
}

// CombinedHash hashes two nodes in byte-lexicographic order, so
// CombinedHash(a, b) == CombinedHash(b, a). Proofs therefore carry no
// left/right markers.
//
// This sorted-pair rule is weaker against node substitution than positional
// hashing. It is kept as is because every published root depends on it.
func CombinedHash(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(hasher.Hash(a[:], b[:]))
}

func compareHash(a, b common.Hash) int {
	return bytes.Compare(a[:], b[:])
}
