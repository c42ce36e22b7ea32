package merkle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Entry is one balance to commit to: an account and the amount it may claim.
type Entry struct {
	Address common.Address
	Amount  *big.Int
}

// IndexedEntry is an Entry together with its position in the distribution.
// Published recipient records carry exactly this data.
type IndexedEntry struct {
	Index   uint64
	Address common.Address
	Amount  *big.Int
}

// Leaf returns the leaf digest of the entry.
func (e IndexedEntry) Leaf() (common.Hash, error) {
	return LeafHash(e.Index, e.Address, e.Amount)
}

// MerkleTree is a built, immutable commitment over a set of entries.
type MerkleTree struct {
	// Root is the merkle root hash
	Root common.Hash

	// Leaves is layer 0: leaf digests sorted byte-wise with duplicates removed
	Leaves []common.Hash

	// Entries holds the inputs sorted by checksummed address; Entries[i].Index == i
	Entries []IndexedEntry

	// levels[0] = Leaves, levels[len-1] = [Root]
	levels [][]common.Hash
}

// Depth returns the number of layers above the leaves.
func (mt *MerkleTree) Depth() int {
	return len(mt.levels) - 1
}

// Level returns a copy of layer i, or nil if i is out of range.
func (mt *MerkleTree) Level(i int) []common.Hash {
	if i < 0 || i >= len(mt.levels) {
		return nil
	}
	out := make([]common.Hash, len(mt.levels[i]))
	copy(out, mt.levels[i])
	return out
}
