package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/coretime/receipt"
)

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "Create a receipt signing key for servers running outside an enclave",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Required: true,
			Usage:    "output PEM file for the private key",
		},
	},
	Action: func(ctx *cli.Context) error {
		keyPEM, err := receipt.GenerateSigningKeyPEM()
		if err != nil {
			return err
		}
		if err := os.WriteFile(ctx.String("out"), keyPEM, 0o600); err != nil {
			return fmt.Errorf("failed to write signing key: %w", err)
		}

		signer, err := receipt.LoadLocalSigner("", keyPEM)
		if err != nil {
			return err
		}
		publicKey, err := signer.PublicKeyPEM()
		if err != nil {
			return err
		}
		fmt.Fprint(ctx.App.Writer, publicKey)
		return nil
	},
}
