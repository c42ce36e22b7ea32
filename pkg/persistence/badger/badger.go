package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// Key layout:
//
//	distribution:<network>:<index as 10 digits>  -> JSON record
//	count:<network>                              -> uint64 big endian
//
// Zero padded indices keep prefix iteration in distribution index order.
const (
	keyPrefixDistribution = "distribution:"
	keyPrefixCount        = "count:"
	keySchemaVersion      = "metadata:schema_version"
	currentSchemaVersion  = "v1"
)

// BadgerStore is a durable distribution store backed by Badger.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	// appendMu serializes appends so concurrent callers never race on a
	// network's count key.
	appendMu sync.Mutex
	closed   bool
}

// NewBadgerStore opens the database at dataPath with SyncWrites enabled and
// starts a background value log GC.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger distribution store initialized", "path", absPath)

	return bs, nil
}

func distributionKey(network string, distributionIndex int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", keyPrefixDistribution, network, distributionIndex))
}

func distributionPrefix(network string) []byte {
	return []byte(keyPrefixDistribution + network + ":")
}

func countKey(network string) []byte {
	return []byte(keyPrefixCount + network)
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func readCount(txn *badgerdb.Txn, network string) (int, error) {
	item, err := txn.Get(countKey(network))
	if err == badgerdb.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var count int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("invalid count data length: %d", len(val))
		}
		count = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return count, err
}

// AppendDistribution stores the record and bumps the network count in one
// transaction.
func (b *BadgerStore) AppendDistribution(network string, d *types.Distribution) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("cannot append nil Distribution")
	}
	if err := persistence.ValidateNetworkName(network); err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, persistence.ErrClosed
	}

	data, err := persistence.MarshalDistribution(d)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal Distribution: %w", err)
	}

	b.appendMu.Lock()
	defer b.appendMu.Unlock()

	var distributionIndex int
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		count, err := readCount(txn, network)
		if err != nil {
			return fmt.Errorf("failed to read count: %w", err)
		}
		distributionIndex = count + 1

		if err := txn.Set(distributionKey(network, distributionIndex), data); err != nil {
			return err
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(distributionIndex))
		return txn.Set(countKey(network), buf)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append Distribution: %w", err)
	}

	return distributionIndex, nil
}

// LoadDistribution retrieves a record by its 1-based index.
func (b *BadgerStore) LoadDistribution(network string, distributionIndex int) (*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}
	if err := persistence.ValidateDistributionIndex(distributionIndex); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(distributionKey(network, distributionIndex))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Distribution: %w", err)
	}

	if data == nil {
		return nil, nil
	}

	d, err := persistence.UnmarshalDistribution(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Distribution: %w", err)
	}

	return d, nil
}

// ListDistributions returns every record of the network in index order.
// A record that fails to decode is an error: skipping it would shift every
// later distribution index.
func (b *BadgerStore) ListDistributions(network string) ([]*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	list := []*types.Distribution{}

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = distributionPrefix(network)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			d, err := persistence.UnmarshalDistribution(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", string(item.Key()), err)
			}

			list = append(list, d)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Distributions: %w", err)
	}

	return list, nil
}

// Close shuts down the store
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger distribution store closed")
	return nil
}

// HealthCheck verifies the database is readable
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
