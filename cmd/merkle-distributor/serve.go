package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/lookup"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP claim lookup server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvPort},
			},
			&cli.StringSliceFlag{
				Name:    "networks",
				Usage:   "Networks to answer lookups for",
				Value:   cli.NewStringSlice(string(config.ChainName_EthereumMainnet), string(config.ChainName_EthereumKovan)),
				EnvVars: []string{config.EnvNetworks},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Sustained requests per second across all clients (0 disables)",
				Value:   config.DefaultRateLimit,
				EnvVars: []string{config.EnvRateLimit},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Usage:   "Requests allowed in a burst above the sustained rate",
				Value:   config.DefaultRateBurst,
				EnvVars: []string{config.EnvRateBurst},
			},
		},
		Action: runServe,
	}
}

func parseLookupServerConfig(c *cli.Context) (*config.LookupServerConfig, error) {
	cfg := &config.LookupServerConfig{
		Port:      c.Int("port"),
		RateLimit: c.Float64("rate-limit"),
		RateBurst: c.Int("rate-burst"),
		Debug:     c.Bool("verbose"),
	}
	for _, name := range c.StringSlice("networks") {
		network, err := config.ParseNetwork(name)
		if err != nil {
			return nil, err
		}
		cfg.Networks = append(cfg.Networks, network)
	}
	return cfg, nil
}

func runServe(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	serverConfig, err := parseLookupServerConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := serverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := lookup.NewServer(serverConfig, store, l)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start lookup server: %w", err)
	}

	l.Sugar().Infow("Lookup server running", "port", serverConfig.Port, "networks", serverConfig.Networks)
	l.Sugar().Infow("Available endpoints",
		"claims", "GET /{network}/{address}",
		"health", "GET /health")
	l.Sugar().Info("Press Ctrl+C to stop")

	<-ctx.Done()
	l.Sugar().Info("Shutting down lookup server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
