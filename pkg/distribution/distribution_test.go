package distribution

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/logger"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
)

const (
	addrA = "0x1111111111111111111111111111111111111111"
	addrB = "0x2222222222222222222222222222222222222222"
	addrC = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	addrD = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
)

func testBalances() map[string]*big.Int {
	return map[string]*big.Int{
		addrD: big.NewInt(400),
		addrA: big.NewInt(100),
		addrC: big.NewInt(300),
		addrB: big.NewInt(200),
	}
}

func TestAssemble(t *testing.T) {
	d, err := Assemble(testBalances(), "four recipients")
	require.NoError(t, err)

	assert.Equal(t, "four recipients", d.Description)
	assert.Equal(t, int64(1000), d.TokenTotal.ToInt().Int64())
	require.Len(t, d.Recipients, 4)

	for i, addr := range []string{addrA, addrB, addrC, addrD} {
		r := d.Recipients[addr]
		require.NotNil(t, r, addr)
		assert.Equal(t, uint64(i), r.Index)
		assert.True(t, merkle.VerifyProof(r.Index, common.HexToAddress(addr), r.AmountInt(), r.Proof, d.MerkleRoot))
	}

	entries, err := IndexedEntries(d)
	require.NoError(t, err)
	root, err := merkle.ReconstructRoot(entries)
	require.NoError(t, err)
	assert.Equal(t, d.MerkleRoot, root)
}

func TestAssembleTwoEntries(t *testing.T) {
	d, err := Assemble(map[string]*big.Int{
		addrB: big.NewInt(200),
		addrA: big.NewInt(100),
	}, "pair")
	require.NoError(t, err)

	leafA, err := merkle.LeafHash(0, common.HexToAddress(addrA), big.NewInt(100))
	require.NoError(t, err)
	leafB, err := merkle.LeafHash(1, common.HexToAddress(addrB), big.NewInt(200))
	require.NoError(t, err)

	assert.Equal(t, merkle.CombinedHash(leafA, leafB), d.MerkleRoot)
	assert.Equal(t, int64(300), d.TokenTotal.ToInt().Int64())
	assert.Equal(t, uint64(0), d.Recipients[addrA].Index)
	assert.Equal(t, uint64(1), d.Recipients[addrB].Index)
	assert.Equal(t, []common.Hash{leafB}, d.Recipients[addrA].Proof)
	assert.Equal(t, []common.Hash{leafA}, d.Recipients[addrB].Proof)
}

func TestAssembleSingleEntry(t *testing.T) {
	d, err := Assemble(map[string]*big.Int{addrC: big.NewInt(5)}, "solo")
	require.NoError(t, err)

	leaf, err := merkle.LeafHash(0, common.HexToAddress(addrC), big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, leaf, d.MerkleRoot)
	assert.Empty(t, d.Recipients[addrC].Proof)
}

func TestAssembleCanonicalizesKeys(t *testing.T) {
	d, err := Assemble(map[string]*big.Int{
		strings.ToLower(addrC): big.NewInt(1),
		strings.TrimPrefix(strings.ToLower(addrD), "0x"): big.NewInt(2),
	}, "lowercase input")
	require.NoError(t, err)

	assert.Contains(t, d.Recipients, addrC)
	assert.Contains(t, d.Recipients, addrD)
}

func TestAssembleTotalDoesNotTruncate(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	d, err := Assemble(map[string]*big.Int{
		addrA: maxUint256,
		addrB: maxUint256,
	}, "huge")
	require.NoError(t, err)

	want := new(big.Int).Mul(maxUint256, big.NewInt(2))
	assert.Equal(t, 0, want.Cmp(d.TokenTotal.ToInt()))
	assert.Greater(t, d.TokenTotal.ToInt().BitLen(), 256)
}

func TestAssembleIsOrderIndependent(t *testing.T) {
	d1, err := Assemble(testBalances(), "x")
	require.NoError(t, err)

	reordered := make(map[string]*big.Int)
	for _, k := range []string{addrB, addrD, addrA, addrC} {
		reordered[k] = testBalances()[k]
	}
	d2, err := Assemble(reordered, "x")
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestAssembleErrors(t *testing.T) {
	testCases := []struct {
		name     string
		balances map[string]*big.Int
		wantErr  error
	}{
		{
			name:     "Empty",
			balances: map[string]*big.Int{},
			wantErr:  merkle.ErrEmptyTree,
		},
		{
			name:     "Invalid address",
			balances: map[string]*big.Int{addrA: big.NewInt(1), "0x1234": big.NewInt(1)},
			wantErr:  merkle.ErrInvalidAddress,
		},
		{
			name:     "Bad checksum",
			balances: map[string]*big.Int{"0x5b38Da6a701c568545dCfcB03FcB875f56beddC4": big.NewInt(1)},
			wantErr:  merkle.ErrInvalidAddress,
		},
		{
			name: "Case-insensitive duplicate",
			balances: map[string]*big.Int{
				addrC:                  big.NewInt(1),
				strings.ToLower(addrC): big.NewInt(2),
			},
			wantErr: merkle.ErrDuplicateEntry,
		},
		{
			name:     "Zero amount",
			balances: map[string]*big.Int{addrA: big.NewInt(0)},
			wantErr:  merkle.ErrNonPositiveAmount,
		},
		{
			name:     "Negative amount",
			balances: map[string]*big.Int{addrA: big.NewInt(-1)},
			wantErr:  merkle.ErrNonPositiveAmount,
		},
		{
			name:     "Nil amount",
			balances: map[string]*big.Int{addrA: nil},
			wantErr:  merkle.ErrNonPositiveAmount,
		},
		{
			name:     "Amount wider than 256 bits",
			balances: map[string]*big.Int{addrA: new(big.Int).Lsh(big.NewInt(1), 256)},
			wantErr:  merkle.ErrEncoding,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Assemble(tc.balances, "bad")
			require.ErrorIs(t, err, tc.wantErr)
			require.Nil(t, d)
		})
	}
}

func TestIndexedEntriesRejectsMalformedRecipients(t *testing.T) {
	d, err := Assemble(testBalances(), "x")
	require.NoError(t, err)

	t.Run("Malformed key", func(t *testing.T) {
		bad := d.Copy()
		bad.Recipients["not-an-address"] = bad.Recipients[addrA]
		_, err := IndexedEntries(bad)
		require.ErrorIs(t, err, merkle.ErrInvalidAddress)
	})

	t.Run("Missing amount", func(t *testing.T) {
		bad := d.Copy()
		bad.Recipients[addrA].Amount = nil
		_, err := IndexedEntries(bad)
		require.ErrorIs(t, err, merkle.ErrEncoding)
	})

	t.Run("Ordered by index", func(t *testing.T) {
		entries, err := IndexedEntries(d)
		require.NoError(t, err)
		for i, e := range entries {
			assert.Equal(t, uint64(i), e.Index)
		}
	})
}

func TestAssembler(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	a := NewAssembler(l)
	d, err := a.Assemble(testBalances(), "logged")
	require.NoError(t, err)
	require.NotNil(t, d)

	d, err = a.Assemble(map[string]*big.Int{}, "empty")
	require.ErrorIs(t, err, merkle.ErrEmptyTree)
	require.Nil(t, d)
}
