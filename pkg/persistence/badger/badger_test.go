package badger

import (
	"testing"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/storetest"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/testutil"
)

func newTestStore(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	bs, err := NewBadgerStore(dir, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return bs
}

func TestBadgerStore(t *testing.T) {
	storetest.RunStoreTests(t, func(t *testing.T) persistence.IDistributionStore {
		return newTestStore(t, t.TempDir())
	})
}

func TestBadgerStore_ImplementsInterface(t *testing.T) {
	var _ persistence.IDistributionStore = (*BadgerStore)(nil)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	bs := newTestStore(t, dir)
	d1 := testutil.CreateTestDistribution(t, 4, 0, "week 1")
	d2 := testutil.CreateTestDistribution(t, 7, 40, "week 2")
	_, err := bs.AppendDistribution("mainnet", d1)
	require.NoError(t, err)
	_, err = bs.AppendDistribution("mainnet", d2)
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	reopened := newTestStore(t, dir)
	defer func() { _ = reopened.Close() }()

	list, err := reopened.ListDistributions("mainnet")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, d1, list[0])
	assert.Equal(t, d2, list[1])

	idx, err := reopened.AppendDistribution("mainnet", testutil.CreateTestDistribution(t, 2, 90, "week 3"))
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestBadgerStore_PrefixDoesNotLeakAcrossNetworks(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	defer func() { _ = bs.Close() }()

	// "main" is a prefix of "mainnet" as a string
	_, err := bs.AppendDistribution("mainnet", testutil.CreateTestDistribution(t, 2, 0, "mainnet"))
	require.NoError(t, err)

	list, err := bs.ListDistributions("main")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBadgerStore_IndexOrderBeyondNine(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	defer func() { _ = bs.Close() }()

	for i := 1; i <= 11; i++ {
		_, err := bs.AppendDistribution("mainnet", testutil.CreateTestDistribution(t, 2, i*10, "record"))
		require.NoError(t, err)
	}

	list, err := bs.ListDistributions("mainnet")
	require.NoError(t, err)
	require.Len(t, list, 11)

	tenth, err := bs.LoadDistribution("mainnet", 10)
	require.NoError(t, err)
	assert.Equal(t, tenth, list[9])
}

func TestBadgerStore_RejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()

	bs := newTestStore(t, dir)
	require.NoError(t, bs.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keySchemaVersion), []byte("v0"))
	}))
	require.NoError(t, bs.Close())

	_, err := NewBadgerStore(dir, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestBadgerLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := &badgerLoggerAdapter{logger: zap.New(core)}

	adapter.Errorf("compaction failed: %d\n", 3)
	adapter.Warningf("slow write")
	adapter.Infof("table created")
	adapter.Debugf("flush")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "compaction failed: 3", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.DebugLevel, entries[2].Level)
	assert.Equal(t, zap.DebugLevel, entries[3].Level)
}
