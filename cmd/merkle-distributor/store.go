package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/file"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/redis"
)

// newStore opens the configured distribution store and checks its health.
func newStore(cfg *config.StoreConfig, l *zap.Logger) (persistence.IDistributionStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	var (
		store persistence.IDistributionStore
		err   error
	)
	switch cfg.Type {
	case config.StoreType_Memory:
		store = memory.NewMemoryStore(l)
	case config.StoreType_File:
		store, err = file.NewFileStore(cfg.DataPath, l)
	case config.StoreType_Badger:
		store, err = badger.NewBadgerStore(cfg.DataPath, l)
	case config.StoreType_Redis:
		store, err = redis.NewRedisStore(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}

	if err := store.HealthCheck(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("store health check failed: %w", err)
	}

	l.Sugar().Debugw("Opened distribution store", "type", cfg.Type)
	return store, nil
}

func openStore(c *cli.Context, l *zap.Logger) (persistence.IDistributionStore, error) {
	return newStore(parseStoreConfig(c), l)
}
