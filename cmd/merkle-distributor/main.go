package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "merkle-distributor",
		Usage: "Build, publish, verify and serve merkle balance distributions",
		Description: `Commits a set of (address, amount) balances to a single merkle root that an
on-chain distributor contract can check claims against.

Each published distribution is appended to its network's store and is
identified by its 1-based distribution index. Every recipient receives an
inclusion proof; anyone holding the published records can re-verify them.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store-type",
				Usage:   fmt.Sprintf("Distribution store backend: %v", config.GetSupportedStoreTypes()),
				Value:   string(config.DefaultStoreType),
				EnvVars: []string{config.EnvStoreType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Directory for the file and badger stores",
				Value:   config.DefaultDataPath,
				EnvVars: []string{config.EnvDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				Value:   config.DefaultRedisAddr,
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number (0-15)",
				EnvVars: []string{config.EnvRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvRedisKeyPrefix},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			verifyCommand(),
			serveCommand(),
			proofCommand(),
		},
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func parseStoreConfig(c *cli.Context) *config.StoreConfig {
	return &config.StoreConfig{
		Type:           config.StoreType(c.String("store-type")),
		DataPath:       c.String("data-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		RedisKeyPrefix: c.String("redis-key-prefix"),
	}
}
