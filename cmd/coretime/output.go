package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/marketapi"
)

type roundOutput struct {
	SessionID string                    `json:"session_id"`
	Entry     market.HistoryEntry       `json:"entry"`
	Receipt   marketapi.ReceiptCOSEGzip `json:"receipt_gzip,omitempty"`
	PublicKey string                    `json:"public_key,omitempty"`
}

func (o roundOutput) writeText(ctx *cli.Context) {
	out := ctx.App.Writer
	result := o.Entry.Result

	fmt.Fprintf(out, "Reserve price:   %.2f\n", o.Entry.ReservePrice)
	if result.Clamp != nil {
		fmt.Fprintf(out, "Capped at %.2f:  %s\n", result.Clamp.Ceiling, strings.Join(result.Clamp.BidderIDs, ", "))
	}
	fmt.Fprintf(out, "Clearing price:  %.2f\n", result.ClearingPrice)
	fmt.Fprintf(out, "Market price:    %.2f\n", result.MarketPrice)
	fmt.Fprintf(out, "Capacity:        %.3f\n", result.Capacity)
	fmt.Fprintf(out, "Sold / unsold:   %g / %g\n", result.Sold, result.Unsold)
	fmt.Fprintf(out, "Revenue:         %.2f\n", result.Revenue())
	fmt.Fprintf(out, "Next reserve:    %.2f\n", o.Entry.NextReserve)

	fmt.Fprintln(out, "Allocations:")
	if len(result.Allocations) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, a := range result.Allocations {
		fmt.Fprintf(out, "  %-10s %g @ %.2f\n", a.BidderID, a.Quantity, a.PricePaid)
	}

	if o.Receipt != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Receipt (gzip):\n%s\n", o.Receipt)
		fmt.Fprintf(out, "Signer public key:\n%s", o.PublicKey)
	}
}
