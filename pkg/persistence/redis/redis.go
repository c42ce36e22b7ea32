package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// Each network is one Redis list of JSON records. RPUSH is atomic and
// returns the new length, which is exactly the 1-based distribution index.
const (
	keyPrefixDistributions = "distributor:distributions:"
	keySchemaVersion       = "distributor:metadata:schema_version"
	currentSchemaVersion   = "v1"

	operationTimeout = 5 * time.Second
)

// RedisStore is a distribution store backed by Redis, suited to running
// several lookup servers against one shared data set.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional prefix for all keys, e.g. "staging:" results
	// in keys like "staging:distributor:distributions:mainnet".
	KeyPrefix string
}

// NewRedisStore connects to Redis and validates the schema version.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis distribution store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisStore) listKey(network string) string {
	return r.prefixKey(keyPrefixDistributions + network)
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	// SETNX so concurrent first starts agree on the version
	if err := r.client.SetNX(ctx, schemaKey, currentSchemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// AppendDistribution pushes the record onto the network list.
func (r *RedisStore) AppendDistribution(network string, d *types.Distribution) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("cannot append nil Distribution")
	}
	if err := persistence.ValidateNetworkName(network); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, persistence.ErrClosed
	}

	data, err := persistence.MarshalDistribution(d)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal Distribution: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	length, err := r.client.RPush(ctx, r.listKey(network), data).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to append Distribution: %w", err)
	}

	return int(length), nil
}

// LoadDistribution retrieves a record by its 1-based index.
func (r *RedisStore) LoadDistribution(network string, distributionIndex int) (*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}
	if err := persistence.ValidateDistributionIndex(distributionIndex); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.LIndex(ctx, r.listKey(network), int64(distributionIndex-1)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Distribution: %w", err)
	}

	d, err := persistence.UnmarshalDistribution(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Distribution: %w", err)
	}

	return d, nil
}

// ListDistributions returns every record of the network in index order.
func (r *RedisStore) ListDistributions(network string) ([]*types.Distribution, error) {
	if err := persistence.ValidateNetworkName(network); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	values, err := r.client.LRange(ctx, r.listKey(network), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list Distributions: %w", err)
	}

	list := make([]*types.Distribution, 0, len(values))
	for i, v := range values {
		d, err := persistence.UnmarshalDistribution([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("failed to decode distribution %d of %s: %w", i+1, network, err)
		}
		list = append(list, d)
	}

	return list, nil
}

// Close shuts down the store
func (r *RedisStore) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis distribution store closed")
	return nil
}

// HealthCheck verifies Redis is reachable and initialized
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
