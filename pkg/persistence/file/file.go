package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// FileStore keeps each network's distributions as one JSON array in
// <dir>/<network>.json, the layout the distribution files are published in.
// Writes replace the file atomically so readers never see a partial array.
type FileStore struct {
	dir    string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewFileStore opens a store rooted at dir, creating the directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", absPath, err)
	}

	logger.Sugar().Infow("File distribution store initialized", "path", absPath)
	return &FileStore{dir: absPath, logger: logger}, nil
}

// Path returns the file holding a network's distributions.
func (f *FileStore) Path(network string) string {
	return filepath.Join(f.dir, network+".json")
}

// AppendDistribution adds a record to the network file and returns its
// 1-based index.
func (f *FileStore) AppendDistribution(network string, d *types.Distribution) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("cannot append nil Distribution")
	}
	if err := persistence.ValidateNetworkName(network); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, persistence.ErrClosed
	}

	list, err := f.read(network)
	if err != nil {
		return 0, err
	}
	list = append(list, d)

	data, err := persistence.MarshalDistributionList(list)
	if err != nil {
		return 0, err
	}
	if err := f.writeAtomic(f.Path(network), data); err != nil {
		return 0, err
	}

	f.logger.Sugar().Debugw("Appended distribution", "network", network, "distribution_index", len(list))
	return len(list), nil
}

// LoadDistribution retrieves a record by its 1-based index.
func (f *FileStore) LoadDistribution(network string, distributionIndex int) (*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}
	if err := persistence.ValidateDistributionIndex(distributionIndex); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, persistence.ErrClosed
	}

	list, err := f.read(network)
	if err != nil {
		return nil, err
	}
	if distributionIndex > len(list) {
		return nil, nil // Not found is not an error
	}
	return list[distributionIndex-1], nil
}

// ListDistributions returns every record of the network in index order.
func (f *FileStore) ListDistributions(network string) ([]*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, persistence.ErrClosed
	}

	return f.read(network)
}

// Close marks the store as closed. Idempotent.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// HealthCheck verifies the data directory is still a writable directory.
func (f *FileStore) HealthCheck() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return persistence.ErrClosed
	}

	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", f.dir)
	}

	probe, err := os.CreateTemp(f.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("data directory is not writable: %w", err)
	}
	_ = probe.Close()
	return os.Remove(probe.Name())
}

// read decodes the network file. A missing file is an empty list.
func (f *FileStore) read(network string) ([]*types.Distribution, error) {
	data, err := os.ReadFile(f.Path(network))
	if errors.Is(err, fs.ErrNotExist) {
		return []*types.Distribution{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read distributions for %s: %w", network, err)
	}

	list, err := persistence.UnmarshalDistributionList(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt distribution file %s: %w", f.Path(network), err)
	}
	return list, nil
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path.
func (f *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
