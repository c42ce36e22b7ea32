// Package storetest holds the behaviour every IDistributionStore
// implementation must share, run from each implementation's tests.
package storetest

import (
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/testutil"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// Factory opens a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) persistence.IDistributionStore

// RunStoreTests runs the shared store behaviour against newStore.
func RunStoreTests(t *testing.T, newStore Factory) {
	t.Run("AppendAndLoad", func(t *testing.T) { testAppendAndLoad(t, newStore(t)) })
	t.Run("LoadNotFound", func(t *testing.T) { testLoadNotFound(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("NetworksAreIndependent", func(t *testing.T) { testNetworksAreIndependent(t, newStore(t)) })
	t.Run("NoExternalMutation", func(t *testing.T) { testNoExternalMutation(t, newStore(t)) })
	t.Run("InvalidInput", func(t *testing.T) { testInvalidInput(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
	t.Run("Close", func(t *testing.T) { testClose(t, newStore(t)) })
}

func testAppendAndLoad(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	d := testutil.CreateTestDistribution(t, 6, 0, "week 1")
	idx, err := store.AppendDistribution("mainnet", d)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	loaded, err := store.LoadDistribution("mainnet", idx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, d, loaded)

	require.NoError(t, store.HealthCheck())
}

func testLoadNotFound(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	loaded, err := store.LoadDistribution("mainnet", 1)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	_, err = store.AppendDistribution("mainnet", testutil.CreateTestDistribution(t, 2, 0, "only"))
	require.NoError(t, err)

	loaded, err = store.LoadDistribution("mainnet", 2)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	list, err := store.ListDistributions("kovan")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testListOrder(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	var published []*types.Distribution
	for i := 0; i < 12; i++ {
		d := testutil.CreateTestDistribution(t, 3, i*10, "record")
		idx, err := store.AppendDistribution("mainnet", d)
		require.NoError(t, err)
		require.Equal(t, i+1, idx)
		published = append(published, d)
	}

	list, err := store.ListDistributions("mainnet")
	require.NoError(t, err)
	require.Len(t, list, len(published))
	for i := range published {
		assert.Equal(t, published[i].MerkleRoot, list[i].MerkleRoot, "position %d", i)
	}

	loaded, err := store.LoadDistribution("mainnet", 10)
	require.NoError(t, err)
	assert.Equal(t, published[9], loaded)
}

func testNetworksAreIndependent(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	mainnet := testutil.CreateTestDistribution(t, 2, 0, "mainnet")
	kovan := testutil.CreateTestDistribution(t, 2, 100, "kovan")

	idx, err := store.AppendDistribution("mainnet", mainnet)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = store.AppendDistribution("kovan", kovan)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	loaded, err := store.LoadDistribution("kovan", 1)
	require.NoError(t, err)
	assert.Equal(t, kovan.MerkleRoot, loaded.MerkleRoot)

	list, err := store.ListDistributions("mainnet")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mainnet.MerkleRoot, list[0].MerkleRoot)
}

func testNoExternalMutation(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	d := testutil.CreateTestDistribution(t, 4, 0, "original")
	want := d.Copy()

	idx, err := store.AppendDistribution("mainnet", d)
	require.NoError(t, err)

	d.Description = "changed after append"
	for _, r := range d.Recipients {
		r.Amount = types.NewHexBig(big.NewInt(1))
	}

	loaded, err := store.LoadDistribution("mainnet", idx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	loaded.Description = "changed after load"
	again, err := store.LoadDistribution("mainnet", idx)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func testInvalidInput(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	_, err := store.AppendDistribution("mainnet", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Distribution")

	_, err = store.AppendDistribution("../escape", testutil.CreateTestDistribution(t, 2, 0, "x"))
	require.Error(t, err)

	_, err = store.LoadDistribution("mainnet", 0)
	require.Error(t, err)

	_, err = store.ListDistributions("")
	require.Error(t, err)
}

func testConcurrentAppends(t *testing.T, store persistence.IDistributionStore) {
	defer func() { _ = store.Close() }()

	const n = 10
	records := make([]*types.Distribution, n)
	for i := range records {
		records[i] = testutil.CreateTestDistribution(t, 2, i*10, "concurrent")
	}

	indices := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			indices[i], errs[i] = store.AppendDistribution("mainnet", records[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	list, err := store.ListDistributions("mainnet")
	require.NoError(t, err)
	require.Len(t, list, n)

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	for i, idx := range sorted {
		require.Equal(t, i+1, idx)
	}

	// Each index must hold the record that was given that index
	for i, idx := range indices {
		assert.Equal(t, records[i].MerkleRoot, list[idx-1].MerkleRoot)
	}
}

func testClose(t *testing.T, store persistence.IDistributionStore) {
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.AppendDistribution("mainnet", testutil.CreateTestDistribution(t, 2, 0, "late"))
	assert.ErrorIs(t, err, persistence.ErrClosed)

	_, err = store.LoadDistribution("mainnet", 1)
	assert.ErrorIs(t, err, persistence.ErrClosed)

	_, err = store.ListDistributions("mainnet")
	assert.ErrorIs(t, err, persistence.ErrClosed)

	assert.ErrorIs(t, store.HealthCheck(), persistence.ErrClosed)
}
