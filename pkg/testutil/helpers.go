package testutil

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/logger"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// TestAddress derives a deterministic, well spread address from a seed.
func TestAddress(seed int) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(fmt.Sprintf("recipient-%d", seed))))
}

// CreateTestBalances creates n balances keyed by checksummed address. The
// seed offset lets callers build disjoint sets.
func CreateTestBalances(n, seedOffset int) map[string]*big.Int {
	balances := make(map[string]*big.Int, n)
	for i := 0; i < n; i++ {
		addr := TestAddress(seedOffset + i)
		balances[addr.Hex()] = new(big.Int).Mul(big.NewInt(int64(i+1)), big.NewInt(1e18))
	}
	return balances
}

// CreateTestDistribution assembles a valid distribution of n recipients.
func CreateTestDistribution(t *testing.T, n, seedOffset int, description string) *types.Distribution {
	t.Helper()
	d, err := distribution.Assemble(CreateTestBalances(n, seedOffset), description)
	if err != nil {
		t.Fatalf("Failed to assemble test distribution: %v", err)
	}
	return d
}

// NewTestLogger returns a quiet production logger for tests.
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return l
}
