package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/config"
	"github.com/cloudx-io/coretime/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "coretime",
		Usage: "Sealed-bid core auctions with an adaptive reserve price",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"CORETIME_CONFIG"},
				Usage:   "YAML config file (CORETIME_* environment variables override it)",
			},
			&cli.IntFlag{
				Name:  "verbosity",
				Value: 0,
				Usage: "log verbosity (1 logs every round)",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "human-readable console logs",
			},
		},
		// main maps errors to exit codes
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			simulateCmd,
			roundCmd,
			verifyCmd,
			keygenCmd,
		},
	}
}

// exitCode maps validation failures to 1 and everything else to 2.
func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}
	return 2
}

// setup loads configuration and builds the logger for a command. The returned
// flush function must be deferred.
func setup(ctx *cli.Context) (*config.Config, logr.Logger, func(), error) {
	log, flush, err := logging.New(logging.Options{
		Verbosity:   ctx.Int("verbosity"),
		Development: ctx.Bool("dev"),
	})
	if err != nil {
		return nil, logr.Discard(), func() {}, err
	}

	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		flush()
		return nil, logr.Discard(), func() {}, err
	}
	return cfg, log, flush, nil
}

// readInput returns the contents of a file, or the value itself when no such file exists.
func readInput(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("empty input")
	}
	if data, err := os.ReadFile(value); err == nil {
		return data, nil
	}
	return []byte(value), nil
}
