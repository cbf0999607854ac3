package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-logr/logr"

	"github.com/cloudx-io/coretime/config"
	"github.com/cloudx-io/coretime/internal/logging"
	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/receipt"
)

// newAttester prefers the Nitro NSM and falls back to a local signer.
func newAttester(cfg config.ServerConfig, log logr.Logger) (receipt.Attester, error) {
	nitro, err := receipt.NitroAttester()
	if err == nil {
		log.Info("Signing receipts with Nitro NSM")
		return nitro, nil
	}
	log.V(1).Info("Nitro NSM unavailable, using local signer", "reason", err.Error())

	var signer *receipt.LocalSigner
	if cfg.SigningKeyFile != "" {
		keyPEM, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err = receipt.LoadLocalSigner(cfg.ModuleID, keyPEM)
		if err != nil {
			return nil, err
		}
	} else {
		signer, err = receipt.NewLocalSigner(cfg.ModuleID, nil)
		if err != nil {
			return nil, err
		}
	}

	publicKey, err := signer.PublicKeyPEM()
	if err != nil {
		return nil, err
	}
	log.Info("Signing receipts with local key", "moduleID", signer.ModuleID(), "publicKey", publicKey)
	return signer, nil
}

func run(ctx context.Context, log logr.Logger) error {
	cfg, err := config.Load(os.Getenv("CORETIME_CONFIG"))
	if err != nil {
		return err
	}

	driver, err := market.NewDriver(cfg.Market.Params(),
		market.WithLogger(log.WithName("market")),
		market.WithRandSource(cfg.Market.RandSource()))
	if err != nil {
		return err
	}

	attester, err := newAttester(cfg.Server, log)
	if err != nil {
		return err
	}

	log.Info("Market session started",
		"session", driver.SessionID(),
		"supply", cfg.Market.Supply,
		"premium", cfg.Market.Premium,
		"reserve", driver.Reserve())

	return NewMarketServer(cfg.Server, driver, attester, log.WithName("server")).Start(ctx)
}

func main() {
	verbosity, _ := strconv.Atoi(os.Getenv("CORETIME_LOG_VERBOSITY"))
	log, flush, err := logging.New(logging.Options{Verbosity: verbosity})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error(err, "Market server stopped")
		flush()
		os.Exit(1)
	}
}
