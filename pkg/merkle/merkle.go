package merkle

import (
	"fmt"
	"math/big"
	"runtime"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// parallelPairThreshold is the number of pairs in a layer above which the
// layer is combined by several workers.
const parallelPairThreshold = 4096

// BuildMerkleTree validates the entries, assigns indices and builds the tree.
//
// Entries are indexed by ascending checksummed address. Leaf digests are then
// sorted and deduplicated, and each following layer combines adjacent pairs
// with CombinedHash. An unpaired last node is carried to the next layer as is;
// no padding node is ever introduced.
func BuildMerkleTree(entries []Entry) (*MerkleTree, error) {
	return buildMerkleTree(entries, runtime.GOMAXPROCS(0))
}

func buildMerkleTree(entries []Entry, workers int) (*MerkleTree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTree
	}

	indexed, err := IndexEntries(entries)
	if err != nil {
		return nil, err
	}

	leaves := make([]common.Hash, len(indexed))
	for i, e := range indexed {
		leaf, err := e.Leaf()
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", e.Index, e.Address.Hex(), err)
		}
		leaves[i] = leaf
	}

	levels := buildLevels(sortedUniqueLeaves(leaves), workers)
	top := levels[len(levels)-1]
	if len(top) != 1 {
		return nil, fmt.Errorf("merkle tree construction failed: final level has %d nodes instead of 1", len(top))
	}

	return &MerkleTree{
		Root:    top[0],
		Leaves:  levels[0],
		Entries: indexed,
		levels:  levels,
	}, nil
}

// IndexEntries checks every entry and returns a new slice sorted by
// checksummed address, with each entry's Index set to its rank.
// The input slice and its amounts are left untouched.
func IndexEntries(entries []Entry) ([]IndexedEntry, error) {
	type keyed struct {
		hex   string
		entry Entry
	}

	seen := make(map[common.Address]struct{}, len(entries))
	sorted := make([]keyed, 0, len(entries))
	for _, e := range entries {
		if e.Amount == nil || e.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: account %s, amount %v", ErrNonPositiveAmount, e.Address.Hex(), e.Amount)
		}
		if _, dup := seen[e.Address]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Address.Hex())
		}
		seen[e.Address] = struct{}{}
		sorted = append(sorted, keyed{hex: e.Address.Hex(), entry: e})
	}

	slices.SortFunc(sorted, func(a, b keyed) int {
		return strings.Compare(a.hex, b.hex)
	})

	indexed := make([]IndexedEntry, len(sorted))
	for i, k := range sorted {
		indexed[i] = IndexedEntry{
			Index:   uint64(i),
			Address: k.entry.Address,
			Amount:  new(big.Int).Set(k.entry.Amount),
		}
	}
	return indexed, nil
}

// GetProof returns the sibling path for the entry at index. The triple must
// match the entry the tree was built with, otherwise ErrProofNotFound is
// returned.
func (mt *MerkleTree) GetProof(index uint64, address common.Address, amount *big.Int) ([]common.Hash, error) {
	if index >= uint64(len(mt.Entries)) {
		return nil, fmt.Errorf("%w: index %d out of bounds (tree has %d entries)", ErrProofNotFound, index, len(mt.Entries))
	}
	stored := mt.Entries[index]
	if stored.Address != address || amount == nil || stored.Amount.Cmp(amount) != 0 {
		return nil, fmt.Errorf("%w: entry %d does not match %s", ErrProofNotFound, index, address.Hex())
	}

	leaf, err := LeafHash(index, address, amount)
	if err != nil {
		return nil, err
	}
	pos, found := slices.BinarySearchFunc(mt.Leaves, leaf, compareHash)
	if !found {
		return nil, fmt.Errorf("%w: leaf %s", ErrProofNotFound, leaf.Hex())
	}

	proof := make([]common.Hash, 0, mt.Depth())
	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		// An even position at the end of an odd layer is carried upward
		// and has no sibling to prove against.
		sibling := pos ^ 1
		if sibling < len(currentLevel) {
			proof = append(proof, currentLevel[sibling])
		}

		pos /= 2
	}

	return proof, nil
}

// VerifyProof recomputes the root from a claimed entry and its proof.
// It needs no tree and has no side effects; any encoding problem with the
// claim makes it return false.
func VerifyProof(index uint64, address common.Address, amount *big.Int, proof []common.Hash, root common.Hash) bool {
	acc, err := LeafHash(index, address, amount)
	if err != nil {
		return false
	}
	for _, sibling := range proof {
		acc = CombinedHash(acc, sibling)
	}
	return acc == root
}

// ReconstructRoot rebuilds the root directly from published recipient data,
// using the indices as given. Comparing the result with a published root
// catches altered or missing recipients that per-proof checks cannot see.
func ReconstructRoot(entries []IndexedEntry) (common.Hash, error) {
	if len(entries) == 0 {
		return common.Hash{}, ErrEmptyTree
	}

	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaf, err := e.Leaf()
		if err != nil {
			return common.Hash{}, fmt.Errorf("entry %d (%s): %w", e.Index, e.Address.Hex(), err)
		}
		leaves[i] = leaf
	}

	levels := buildLevels(sortedUniqueLeaves(leaves), runtime.GOMAXPROCS(0))
	return levels[len(levels)-1][0], nil
}

// sortedUniqueLeaves returns a new byte-wise sorted slice without duplicates.
func sortedUniqueLeaves(leaves []common.Hash) []common.Hash {
	out := slices.Clone(leaves)
	slices.SortFunc(out, compareHash)
	return slices.Compact(out)
}

// buildLevels derives every layer from a non-empty leaf layer up to the root.
func buildLevels(leaves []common.Hash, workers int) [][]common.Hash {
	levels := [][]common.Hash{leaves}

	currentLevel := leaves
	for len(currentLevel) > 1 {
		currentLevel = nextLevel(currentLevel, workers)
		levels = append(levels, currentLevel)
	}
	return levels
}

// nextLevel combines adjacent pairs and carries an odd trailing node.
// Pairs are independent, so large layers are split across workers.
func nextLevel(level []common.Hash, workers int) []common.Hash {
	pairs := len(level) / 2
	next := make([]common.Hash, (len(level)+1)/2)

	if workers <= 1 || pairs < parallelPairThreshold {
		combineRange(level, next, 0, pairs)
	} else {
		chunk := (pairs + workers - 1) / workers
		var g errgroup.Group
		g.SetLimit(workers)
		for start := 0; start < pairs; start += chunk {
			end := min(start+chunk, pairs)
			g.Go(func() error {
				combineRange(level, next, start, end)
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(level)%2 == 1 {
		next[pairs] = level[len(level)-1]
	}
	return next
}

func combineRange(level, next []common.Hash, start, end int) {
	for i := start; i < end; i++ {
		next[i] = CombinedHash(level[2*i], level[2*i+1])
	}
}
