package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/balances"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/distribution"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Build a distribution from a balance file and append it to the network's store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Balance file: .csv ('Address,amount' in whole tokens) or .json (address -> base units)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "network",
				Aliases:  []string{"n"},
				Usage:    fmt.Sprintf("Network to publish the distribution for: %s", config.GetSupportedNetworksString()),
				EnvVars:  []string{config.EnvNetwork},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "description",
				Aliases:  []string{"d"},
				Usage:    "Short description of the distribution",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Build and print the distribution without storing it",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}

	balanceMap, err := balances.LoadFile(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	l.Sugar().Infow("Loaded balances", "input", c.String("input"), "entries", len(balanceMap))

	d, err := distribution.NewAssembler(l).Assemble(balanceMap, c.String("description"))
	if err != nil {
		return fmt.Errorf("failed to build distribution: %w", err)
	}

	out := c.App.Writer
	if c.Bool("dry-run") {
		_, _ = fmt.Fprintf(out, "merkle root:  %s\n", d.MerkleRoot.Hex())
		_, _ = fmt.Fprintf(out, "token total:  %s\n", d.TokenTotal.ToInt())
		_, _ = fmt.Fprintf(out, "recipients:   %d\n", len(d.Recipients))
		_, _ = fmt.Fprintln(out, "not stored (dry run)")
		return nil
	}

	store, err := openStore(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	distributionIndex, err := store.AppendDistribution(string(network), d)
	if err != nil {
		return fmt.Errorf("failed to store distribution: %w", err)
	}

	l.Sugar().Infow("Published distribution",
		"network", network,
		"distribution_index", distributionIndex,
		"merkle_root", d.MerkleRoot.Hex(),
	)
	_, _ = fmt.Fprintf(out, "network:            %s\n", network)
	_, _ = fmt.Fprintf(out, "distribution index: %d\n", distributionIndex)
	_, _ = fmt.Fprintf(out, "merkle root:        %s\n", d.MerkleRoot.Hex())
	_, _ = fmt.Fprintf(out, "token total:        %s\n", d.TokenTotal.ToInt())
	_, _ = fmt.Fprintf(out, "recipients:         %d\n", len(d.Recipients))
	return nil
}
