package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/marketapi"
	"github.com/cloudx-io/coretime/validation"
)

var verifyCmd = &cli.Command{
	Name:    "verify",
	Usage:   "Validate a round receipt",
	Aliases: []string{"v"},
	Description: "Each input flag accepts either a file path or an inline value.\n" +
		"Exit codes: 0 validation passed, 1 validation failed, 2 invalid input.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "receipt",
			Required: true,
			Usage:    "receipt in gzip, base64 or base64url form",
		},
		&cli.StringFlag{
			Name:  "public-key",
			Usage: "PEM public key of a local signer (not needed for Nitro receipts)",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "expected session id",
		},
		&cli.StringFlag{
			Name:  "bidder",
			Usage: "bidder id whose bid must be in the receipt",
		},
		&cli.Float64Flag{
			Name:  "quantity",
			Usage: "submitted quantity of --bidder's bid",
		},
		&cli.Float64Flag{
			Name:  "price",
			Usage: "submitted price of --bidder's bid",
		},
		&cli.Float64Flag{
			Name:  "clearing-price",
			Usage: "expected clearing price",
		},
		&cli.Float64Flag{
			Name:  "allocation",
			Usage: "expected quantity allocated to --bidder",
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

		input, err := verifyInput(ctx)
		if err != nil {
			return err
		}

		result, err := validation.ValidateRoundReceipt(input)
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		if format == "json" {
			if err := writeValidationJSON(ctx.App.Writer, result); err != nil {
				return err
			}
		} else {
			writeValidationText(ctx.App.Writer, result)
		}

		if !result.IsValid() {
			return cli.Exit("validation failed", 1)
		}
		return nil
	},
}

func verifyInput(ctx *cli.Context) (*validation.RoundReceiptInput, error) {
	encoded, err := readInput(ctx.String("receipt"))
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	coseBytes, err := marketapi.DecodeReceipt(string(encoded))
	if err != nil {
		return nil, err
	}

	input := &validation.RoundReceiptInput{
		Receipt:   coseBytes,
		SessionID: ctx.String("session"),
	}

	if ctx.IsSet("public-key") {
		publicKey, err := readInput(ctx.String("public-key"))
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		input.ExpectedPublicKey = string(publicKey)
	}

	if ctx.IsSet("bidder") {
		if !ctx.IsSet("quantity") || !ctx.IsSet("price") {
			return nil, fmt.Errorf("--bidder requires --quantity and --price")
		}
		input.Bid = &validation.BidCommitment{
			BidderID: ctx.String("bidder"),
			Quantity: ctx.Float64("quantity"),
			Price:    ctx.Float64("price"),
		}
	}

	if ctx.IsSet("clearing-price") {
		clearingPrice := ctx.Float64("clearing-price")
		input.ExpectedClearingPrice = &clearingPrice
	}

	if ctx.IsSet("allocation") {
		if input.Bid == nil {
			return nil, fmt.Errorf("--allocation requires --bidder")
		}
		allocation := ctx.Float64("allocation")
		input.ExpectedAllocation = &allocation
	}

	return input, nil
}

func writeValidationText(out io.Writer, result *validation.RoundValidationResult) {
	fmt.Fprintln(out, "Round Receipt Validator")
	fmt.Fprintln(out, "=======================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Fprintf(out, "  Certificate Valid:       %v\n", result.CertificateValid)
	fmt.Fprintf(out, "  Public Key Match:        %v\n", result.PublicKeyMatch)
	fmt.Fprintf(out, "  Session Valid:           %v\n", result.SessionValid)
	fmt.Fprintf(out, "  Bid Hash Valid:          %v\n", result.BidHashValid)
	fmt.Fprintf(out, "  Clearing Price Valid:    %v\n", result.ClearingPriceValid)
	fmt.Fprintf(out, "  Uniform Pricing Valid:   %v\n", result.UniformPricingValid)
	fmt.Fprintf(out, "  Conservation Valid:      %v\n", result.ConservationValid)
	fmt.Fprintf(out, "  Market Price Valid:      %v\n", result.MarketPriceValid)
	fmt.Fprintf(out, "  Allocations Hash Valid:  %v\n", result.AllocationsHashValid)
	fmt.Fprintf(out, "  Allocation Valid:        %v\n", result.AllocationValid)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Fprintf(out, "  - %s\n", detail)
	}
	fmt.Fprintln(out)
	if result.IsValid() {
		fmt.Fprintln(out, "VALIDATION: PASSED")
	} else {
		fmt.Fprintln(out, "VALIDATION: FAILED")
	}
}

func writeValidationJSON(out io.Writer, result *validation.RoundValidationResult) error {
	output := map[string]any{
		"valid":                  result.IsValid(),
		"signature_valid":        result.SignatureValid,
		"certificate_valid":      result.CertificateValid,
		"public_key_match":       result.PublicKeyMatch,
		"session_valid":          result.SessionValid,
		"bid_hash_valid":         result.BidHashValid,
		"clearing_price_valid":   result.ClearingPriceValid,
		"uniform_pricing_valid":  result.UniformPricingValid,
		"conservation_valid":     result.ConservationValid,
		"market_price_valid":     result.MarketPriceValid,
		"allocations_hash_valid": result.AllocationsHashValid,
		"allocation_valid":       result.AllocationValid,
		"details":                result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
