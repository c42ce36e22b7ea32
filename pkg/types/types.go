package types

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Recipient is the published claim data for one account.
type Recipient struct {
	Index  uint64        `json:"index"`
	Amount *HexBig       `json:"amount"`
	Proof  []common.Hash `json:"proof"`
}

// Distribution is the complete published record of one commitment.
// Recipients are keyed by checksummed address.
type Distribution struct {
	MerkleRoot  common.Hash           `json:"merkleRoot"`
	TokenTotal  *HexBig               `json:"tokenTotal"`
	Description string                `json:"description"`
	Recipients  map[string]*Recipient `json:"recipients"`
}

// Claim is what the lookup service returns for one distribution containing
// the requested address. DistributionIndex is 1-based.
type Claim struct {
	DistributionIndex int           `json:"distributionIndex"`
	Index             uint64        `json:"index"`
	Amount            *HexBig       `json:"amount"`
	Proof             []common.Hash `json:"proof"`
}

// Addresses returns the recipient addresses in ascending order.
func (d *Distribution) Addresses() []string {
	addrs := make([]string, 0, len(d.Recipients))
	for addr := range d.Recipients {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// Copy returns a deep copy of the distribution.
func (d *Distribution) Copy() *Distribution {
	if d == nil {
		return nil
	}
	out := &Distribution{
		MerkleRoot:  d.MerkleRoot,
		Description: d.Description,
		Recipients:  make(map[string]*Recipient, len(d.Recipients)),
	}
	if d.TokenTotal != nil {
		out.TokenTotal = NewHexBig(d.TokenTotal.ToInt())
	}
	for addr, r := range d.Recipients {
		out.Recipients[addr] = r.Copy()
	}
	return out
}

// Copy returns a deep copy of the recipient.
func (r *Recipient) Copy() *Recipient {
	if r == nil {
		return nil
	}
	out := &Recipient{
		Index: r.Index,
		Proof: slices.Clone(r.Proof),
	}
	if r.Amount != nil {
		out.Amount = NewHexBig(r.Amount.ToInt())
	}
	return out
}

// AmountInt returns the recipient amount, or nil if absent.
func (r *Recipient) AmountInt() *big.Int {
	if r.Amount == nil {
		return nil
	}
	return r.Amount.ToInt()
}

// ClaimFor builds the lookup response for address in this distribution.
func (d *Distribution) ClaimFor(address string, distributionIndex int) (*Claim, bool) {
	r, ok := d.Recipients[address]
	if !ok || r == nil {
		return nil, false
	}
	c := r.Copy()
	return &Claim{
		DistributionIndex: distributionIndex,
		Index:             c.Index,
		Amount:            c.Amount,
		Proof:             c.Proof,
	}, true
}
