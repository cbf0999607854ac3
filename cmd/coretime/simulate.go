package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/config"
	"github.com/cloudx-io/coretime/market"
)

var simulateCmd = &cli.Command{
	Name:    "simulate",
	Usage:   "Replay a round script through one market session",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "script",
			Required: true,
			Usage:    "round script (YAML or JSON)",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "table",
			Usage: "output format: table or json",
		},
	},
	Action: func(ctx *cli.Context) error {
		format := ctx.String("format")
		if format != "table" && format != "json" {
			return fmt.Errorf("invalid format %q", format)
		}

		cfg, log, flush, err := setup(ctx)
		if err != nil {
			return err
		}
		defer flush()

		script, err := config.LoadScript(ctx.String("script"))
		if err != nil {
			return err
		}

		driver, err := market.NewDriver(cfg.Market.Params(),
			market.WithLogger(log.WithName("market")),
			market.WithRandSource(cfg.Market.RandSource()))
		if err != nil {
			return err
		}

		if _, err := driver.Run(script.RoundInputs()); err != nil {
			return err
		}

		out := ctx.App.Writer
		if format == "json" {
			return writeSessionJSON(out, driver)
		}
		return writeSessionTable(out, driver)
	},
}

type sessionExport struct {
	SessionID string                `json:"session_id"`
	Premium   float64               `json:"premium"`
	History   []market.HistoryEntry `json:"history"`
	Summary   market.Summary        `json:"summary"`
}

func writeSessionJSON(out io.Writer, driver *market.Driver) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sessionExport{
		SessionID: driver.SessionID(),
		Premium:   driver.Params().Premium,
		History:   driver.History(),
		Summary:   driver.Summary(),
	})
}

func writeSessionTable(out io.Writer, driver *market.Driver) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "round\treserve\tclearing\tmarket\tcapacity\tsold\tunsold\tnext reserve\twinners\t")
	for _, entry := range driver.History() {
		winners := make([]string, 0, len(entry.Result.Allocations))
		for _, a := range entry.Result.Allocations {
			winners = append(winners, fmt.Sprintf("%s:%g", a.BidderID, a.Quantity))
		}
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%g\t%g\t%.2f\t%s\t\n",
			entry.Round,
			entry.ReservePrice,
			entry.Result.ClearingPrice,
			entry.Result.MarketPrice,
			entry.Result.Capacity,
			entry.Result.Sold,
			entry.Result.Unsold,
			entry.NextReserve,
			strings.Join(winners, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := driver.Summary()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Session:             %s\n", driver.SessionID())
	fmt.Fprintf(out, "Rounds:              %d (%d sold out)\n", summary.Rounds, summary.SoldOutRounds)
	fmt.Fprintf(out, "Revenue:             %.2f\n", summary.Revenue)
	fmt.Fprintf(out, "Current reserve:     %.2f\n", summary.CurrentReserve)
	fmt.Fprintf(out, "Current max price:   %.2f\n", summary.CurrentCeiling)
	fmt.Fprintf(out, "Last clearing price: %.2f\n", summary.LastClearingPrice)
	fmt.Fprintf(out, "Capacity:            mean %.3f, min %.3f, max %.3f\n",
		summary.Capacity.Mean, summary.Capacity.Min, summary.Capacity.Max)
	fmt.Fprintf(out, "Clearing price:      mean %.2f, stddev %.2f\n",
		summary.ClearingPrice.Mean, summary.ClearingPrice.StdDev)
	return nil
}
