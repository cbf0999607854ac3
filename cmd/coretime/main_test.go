package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CORETIME_CONFIG", "")

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(append([]string{"coretime"}, args...))
	return out.String(), err
}

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const exampleScript = `
rounds:
  - bids:
      - {bidder: alice, quantity: 5, price: 1500}
      - {bidder: bob, quantity: 4, price: 1200}
  - bids:
      - {bidder: alice, quantity: 8, price: 2500}
      - {bidder: bob, quantity: 8, price: 2000}
`

func TestSimulate_Table(t *testing.T) {
	out, err := runApp(t, "simulate", "--script", writeTemp(t, "rounds.yaml", exampleScript))
	assert.NoError(t, err)

	check.True(t, strings.Contains(out, "next reserve"))
	check.True(t, strings.Contains(out, "alice:5 bob:4"))
	check.True(t, strings.Contains(out, "Rounds:              2 (1 sold out)"))
	check.True(t, strings.Contains(out, "Revenue:             29000.00"))
}

func TestSimulate_JSON(t *testing.T) {
	out, err := runApp(t, "simulate", "--script", writeTemp(t, "rounds.yaml", exampleScript), "--format", "json")
	assert.NoError(t, err)

	var export sessionExport
	assert.NoError(t, json.Unmarshal([]byte(out), &export))
	check.Equal(t, 3, len(export.History))
	check.Equal(t, 2, export.Summary.Rounds)
	check.Equal(t, 2000.0, export.Summary.LastClearingPrice)
	check.Equal(t, 2.0, export.Premium)
}

func TestSimulate_Errors(t *testing.T) {
	_, err := runApp(t, "simulate", "--script", "missing.yaml")
	check.Error(t, err)

	_, err = runApp(t, "simulate", "--script", writeTemp(t, "rounds.yaml", exampleScript), "--format", "xml")
	check.Error(t, err)
}

func TestRoundThenVerify(t *testing.T) {
	out, err := runApp(t, "round",
		"--quantity", "6", "--quantity", "5", "--quantity", "4",
		"--price", "250", "--price", "150", "--price", "120",
		"--reserve", "100", "--receipt", "--format", "json")
	assert.NoError(t, err)

	var round roundOutput
	assert.NoError(t, json.Unmarshal([]byte(out), &round))
	check.Equal(t, 100.0, round.Entry.ReservePrice)
	check.Equal(t, 150.0, round.Entry.Result.ClearingPrice)
	check.Equal(t, 450.0, round.Entry.Result.MarketPrice)
	assert.NotEqual(t, "", round.Receipt.String())

	keyFile := writeTemp(t, "signer.pem", round.PublicKey)
	receiptFile := writeTemp(t, "receipt.txt", round.Receipt.String())

	out, err = runApp(t, "verify",
		"--receipt", receiptFile,
		"--public-key", keyFile,
		"--session", round.SessionID,
		"--bidder", "P1", "--quantity", "6", "--price", "250",
		"--allocation", "6")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "VALIDATION: PASSED"))

	out, err = runApp(t, "verify",
		"--receipt", round.Receipt.String(),
		"--public-key", keyFile,
		"--bidder", "P1", "--quantity", "6", "--price", "200",
		"--format", "json")
	assert.NotNil(t, err)
	exitErr, ok := err.(cli.ExitCoder)
	assert.True(t, ok)
	check.Equal(t, 1, exitErr.ExitCode())
	check.True(t, strings.Contains(out, `"bid_hash_valid": false`))
}

func TestRound_Text(t *testing.T) {
	out, err := runApp(t, "round",
		"--quantity", "20", "--price", "5000",
		"--bidder", "greedy", "--reserve", "1000")
	assert.NoError(t, err)

	check.True(t, strings.Contains(out, "Capped at 3000.00:  greedy"))
	check.True(t, strings.Contains(out, "Clearing price:  3000.00"))
	check.True(t, strings.Contains(out, "greedy     10 @ 3000.00"))
}

func TestVerify_InputErrors(t *testing.T) {
	_, err := runApp(t, "verify", "--receipt", "%%%")
	check.Error(t, err)
	check.Equal(t, 2, exitCode(err))

	_, err = runApp(t, "round", "--quantity", "1", "--price", "1", "--format", "xml")
	check.Error(t, err)
}

func TestKeygen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	out, err := runApp(t, "keygen", "--out", path)
	assert.NoError(t, err)
	check.True(t, strings.HasPrefix(out, "-----BEGIN PUBLIC KEY-----"))

	keyPEM, err := os.ReadFile(path)
	assert.NoError(t, err)
	check.True(t, strings.Contains(string(keyPEM), "EC PRIVATE KEY"))
}
