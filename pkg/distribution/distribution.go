package distribution

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// Assemble builds a complete distribution record from a balance map
// (account text -> amount in base units).
//
// Either every entry is valid and a full record is returned, or nothing is:
// a partially built commitment is meaningless. Balance keys are processed in
// sorted order so the reported error does not depend on map iteration.
func Assemble(balances map[string]*big.Int, description string) (*types.Distribution, error) {
	entries, err := ParseEntries(balances)
	if err != nil {
		return nil, err
	}

	tree, err := merkle.BuildMerkleTree(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}

	total := new(big.Int)
	recipients := make(map[string]*types.Recipient, len(tree.Entries))
	for _, e := range tree.Entries {
		proof, err := tree.GetProof(e.Index, e.Address, e.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to generate proof for %s: %w", e.Address.Hex(), err)
		}
		total.Add(total, e.Amount)
		recipients[e.Address.Hex()] = &types.Recipient{
			Index:  e.Index,
			Amount: types.NewHexBig(e.Amount),
			Proof:  proof,
		}
	}

	return &types.Distribution{
		MerkleRoot:  tree.Root,
		TokenTotal:  types.NewHexBig(total),
		Description: description,
		Recipients:  recipients,
	}, nil
}

// ParseEntries canonicalizes the balance map into tree entries, rejecting
// malformed addresses, addresses that collide once canonicalized, and
// non-positive amounts.
func ParseEntries(balances map[string]*big.Int) ([]merkle.Entry, error) {
	if len(balances) == 0 {
		return nil, merkle.ErrEmptyTree
	}

	keys := make([]string, 0, len(balances))
	for k := range balances {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	seen := make(map[common.Address]string, len(keys))
	entries := make([]merkle.Entry, 0, len(keys))
	for _, key := range keys {
		addr, err := merkle.CanonicalAddress(key)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%w: %s (given as %q and %q)", merkle.ErrDuplicateEntry, addr.Hex(), prev, key)
		}
		seen[addr] = key

		amount := balances[key]
		if amount == nil || amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: account %s, amount %v", merkle.ErrNonPositiveAmount, key, amount)
		}
		entries = append(entries, merkle.Entry{Address: addr, Amount: amount})
	}
	return entries, nil
}

// IndexedEntries extracts the published (index, address, amount) triples of
// a distribution, ordered by index.
func IndexedEntries(d *types.Distribution) ([]merkle.IndexedEntry, error) {
	entries := make([]merkle.IndexedEntry, 0, len(d.Recipients))
	for _, key := range d.Addresses() {
		r := d.Recipients[key]
		if r == nil {
			return nil, fmt.Errorf("%w: recipient %s has no data", merkle.ErrEncoding, key)
		}
		addr, err := merkle.CanonicalAddress(key)
		if err != nil {
			return nil, err
		}
		amount := r.AmountInt()
		if amount == nil {
			return nil, fmt.Errorf("%w: recipient %s has no amount", merkle.ErrEncoding, key)
		}
		entries = append(entries, merkle.IndexedEntry{Index: r.Index, Address: addr, Amount: amount})
	}
	slices.SortStableFunc(entries, func(a, b merkle.IndexedEntry) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})
	return entries, nil
}

// Assembler wraps Assemble with logging for the command line tools.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(logger *zap.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble builds a distribution and logs its summary.
func (a *Assembler) Assemble(balances map[string]*big.Int, description string) (*types.Distribution, error) {
	a.logger.Sugar().Debugw("Assembling distribution", "entries", len(balances), "description", description)

	d, err := Assemble(balances, description)
	if err != nil {
		a.logger.Sugar().Errorw("Failed to assemble distribution", "error", err)
		return nil, err
	}

	a.logger.Sugar().Infow("Assembled distribution",
		"merkle_root", d.MerkleRoot.Hex(),
		"token_total", d.TokenTotal.ToInt().String(),
		"recipients", len(d.Recipients),
	)
	return d, nil
}
