package memory

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// MemoryStore is an in-memory implementation of IDistributionStore.
// This implementation is intended for tests and local development.
//
// All data is lost when the process exits.
// Deep copies data to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// network -> records in distribution index order
	distributions map[string][]*types.Distribution

	closed bool
}

// NewMemoryStore creates a new in-memory store. It logs a warning since
// nothing it holds survives a restart.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	logger.Sugar().Warnw("Using in-memory distribution store - ALL DATA WILL BE LOST ON EXIT")

	return &MemoryStore{
		distributions: make(map[string][]*types.Distribution),
	}
}

// AppendDistribution adds a record and returns its 1-based index.
func (m *MemoryStore) AppendDistribution(network string, d *types.Distribution) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("cannot append nil Distribution")
	}
	if err := persistence.ValidateNetworkName(network); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, persistence.ErrClosed
	}

	m.distributions[network] = append(m.distributions[network], d.Copy())
	return len(m.distributions[network]), nil
}

// LoadDistribution retrieves a record by its 1-based index.
func (m *MemoryStore) LoadDistribution(network string, distributionIndex int) (*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}
	if err := persistence.ValidateDistributionIndex(distributionIndex); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	records := m.distributions[network]
	if distributionIndex > len(records) {
		return nil, nil // Not found is not an error
	}

	return records[distributionIndex-1].Copy(), nil
}

// ListDistributions returns every record of the network in index order.
func (m *MemoryStore) ListDistributions(network string) ([]*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	records := m.distributions[network]
	result := make([]*types.Distribution, 0, len(records))
	for _, d := range records {
		result = append(result, d.Copy())
	}

	return result, nil
}

// Close marks the store as closed and releases its data.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.distributions = nil
	return nil
}

// HealthCheck always succeeds while the store is open.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
