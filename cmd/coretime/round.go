package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/receipt"
)

var roundCmd = &cli.Command{
	Name:    "round",
	Usage:   "Clear a single round and print its result",
	Aliases: []string{"r"},
	Flags: []cli.Flag{
		&cli.Float64SliceFlag{
			Name:     "quantity",
			Aliases:  []string{"q"},
			Required: true,
			Usage:    "bid quantities, one per bidder (e.g. 6,5,4)",
		},
		&cli.Float64SliceFlag{
			Name:     "price",
			Aliases:  []string{"p"},
			Required: true,
			Usage:    "bid prices, one per bidder (e.g. 250,150,120)",
		},
		&cli.StringSliceFlag{
			Name:  "bidder",
			Usage: "bidder ids, one per bid (default P1..Pn)",
		},
		&cli.Float64Flag{
			Name:  "reserve",
			Usage: "reserve price (default market.initialReserve)",
		},
		&cli.Float64Flag{
			Name:  "supply",
			Usage: "cores offered (default market.supply)",
		},
		&cli.BoolFlag{
			Name:  "receipt",
			Usage: "sign a receipt for the round",
		},
		&cli.StringFlag{
			Name:  "signing-key",
			Usage: "PEM P-384 key for the receipt (default: a fresh key)",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "output format: text or json",
		},
	},
	Action: func(ctx *cli.Context) error {
		format := ctx.String("format")
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid format %q", format)
		}

		cfg, log, flush, err := setup(ctx)
		if err != nil {
			return err
		}
		defer flush()

		params := cfg.Market.Params()
		if ctx.IsSet("reserve") {
			params.InitialReserve = ctx.Float64("reserve")
		}

		driver, err := market.NewDriver(params,
			market.WithLogger(log.WithName("market")),
			market.WithRandSource(cfg.Market.RandSource()))
		if err != nil {
			return err
		}

		input := market.RoundInput{
			Bids: core.RawBids{
				Quantities: ctx.Float64Slice("quantity"),
				Prices:     ctx.Float64Slice("price"),
			},
			Supply: ctx.Float64("supply"),
		}
		if bidders := ctx.StringSlice("bidder"); len(bidders) > 0 {
			input.BidderIDs = bidders
		}

		entry, err := driver.Step(input)
		if err != nil {
			return err
		}

		output := roundOutput{SessionID: entry.SessionID, Entry: entry}
		if ctx.Bool("receipt") {
			signer, err := loadSigner(ctx.String("signing-key"), cfg.Server.ModuleID)
			if err != nil {
				return err
			}
			coseBytes, err := receipt.GenerateRoundReceipt(signer, entry.SessionID, params.Premium, entry, input)
			if err != nil {
				return err
			}
			if output.Receipt, err = coseBytes.CompressGzip(); err != nil {
				return err
			}
			if output.PublicKey, err = signer.PublicKeyPEM(); err != nil {
				return err
			}
		}

		if format == "json" {
			encoder := json.NewEncoder(ctx.App.Writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(output)
		}
		output.writeText(ctx)
		return nil
	},
}

func loadSigner(keyFile, moduleID string) (*receipt.LocalSigner, error) {
	if keyFile == "" {
		return receipt.NewLocalSigner(moduleID, nil)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	return receipt.LoadLocalSigner(moduleID, keyPEM)
}
