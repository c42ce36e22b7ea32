package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/lookup"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

func proofCommand() *cli.Command {
	return &cli.Command{
		Name:  "proof",
		Usage: "Print every claim (distribution index, index, amount, proof) for an address",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "network",
				Aliases:  []string{"n"},
				Usage:    "Network to look up",
				EnvVars:  []string{config.EnvNetwork},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Aliases:  []string{"a"},
				Usage:    "Account address",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "Query a running lookup server at this URL instead of the local store",
			},
		},
		Action: runProof,
	}
}

func runProof(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}
	address, err := merkle.ChecksumAddress(c.String("address"))
	if err != nil {
		return err
	}

	var claims []*types.Claim
	if serverURL := c.String("server"); serverURL != "" {
		client, err := lookup.NewClient(&lookup.ClientConfig{BaseURL: serverURL, Logger: l})
		if err != nil {
			return err
		}
		claims, err = client.GetClaims(c.Context, string(network), address)
		if err != nil {
			return err
		}
	} else {
		store, err := openStore(c, l)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		records, err := store.ListDistributions(string(network))
		if err != nil {
			return fmt.Errorf("failed to list distributions for %s: %w", network, err)
		}
		claims = lookup.FindClaims(records, address)
	}

	data, err := json.MarshalIndent(claims, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}
	_, _ = fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
