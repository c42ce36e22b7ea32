package persistence

import "github.com/Layr-Labs/merkle-distributor-go/pkg/types"

// IDistributionStore persists the published distributions of every network.
// All implementations must be thread-safe; the lookup server reads while the
// CLI may append.
//
// Distributions are immutable once published, so the store is append-only:
// there is no update or delete. Each network keeps its own sequence and the
// position of a record in that sequence is its distribution index (1-based),
// which is what claimants reference on-chain.
type IDistributionStore interface {
	// AppendDistribution adds a record to the end of the network's sequence
	// and returns its 1-based distribution index.
	AppendDistribution(network string, d *types.Distribution) (int, error)

	// LoadDistribution retrieves a record by its 1-based distribution index.
	// Returns nil if the index does not exist, error only on storage failure.
	LoadDistribution(network string, distributionIndex int) (*types.Distribution, error)

	// ListDistributions returns every record of the network in index order.
	// Returns an empty slice for an unknown network.
	ListDistributions(network string) ([]*types.Distribution, error)

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}
