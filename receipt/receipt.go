// Package receipt produces signed, auditable records of cleared rounds.
//
// A receipt commits to every submitted bid with a salted hash, so that a bidder
// can later prove its bid was included without the receipt revealing other
// bidders' quantities or prices.
package receipt

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/marketapi"
)

// GenerateRoundReceipt signs the record of one cleared round. input is the
// round as submitted, before ceiling clamping or reserve filtering.
func GenerateRoundReceipt(
	attester Attester,
	sessionID string,
	premium float64,
	entry market.HistoryEntry,
	input market.RoundInput,
) (marketapi.ReceiptCOSE, error) {
	if attester == nil {
		return nil, fmt.Errorf("receipt attester is nil")
	}

	userData, err := BuildUserData(sessionID, premium, entry, input)
	if err != nil {
		return nil, err
	}

	userDataBytes, err := json.Marshal(userData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user data: %w", err)
	}

	randomNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt nonce: %w", err)
	}

	receiptCBOR, err := attester.Attest(enclave.AttestationOptions{
		UserData: userDataBytes,
		Nonce:    []byte(randomNonce),
	})
	if err != nil {
		return nil, fmt.Errorf("receipt attestation failed: %w", err)
	}

	return marketapi.ReceiptCOSE(receiptCBOR), nil
}

// BuildUserData assembles the round record with fresh nonces for the bid,
// round and allocation hashes.
func BuildUserData(sessionID string, premium float64, entry market.HistoryEntry, input market.RoundInput) (*marketapi.RoundReceiptUserData, error) {
	bidderIDs := input.BidderIDs
	if bidderIDs == nil {
		bidderIDs = core.DefaultBidderIDs(len(input.Bids.Quantities))
	}
	if len(bidderIDs) != len(input.Bids.Quantities) || len(input.Bids.Prices) != len(input.Bids.Quantities) {
		return nil, fmt.Errorf("%w: %d bidders, %d quantities, %d prices",
			core.ErrMismatchedBidInput, len(bidderIDs), len(input.Bids.Quantities), len(input.Bids.Prices))
	}

	bidHashNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bid hash nonce: %w", err)
	}

	roundNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate round nonce: %w", err)
	}

	allocationsNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate allocations nonce: %w", err)
	}

	bidHashes := make([]string, 0, len(bidderIDs))
	for i, bidderID := range bidderIDs {
		bidHashes = append(bidHashes, core.ComputeBidHash(bidderID, input.Bids.Quantities[i], input.Bids.Prices[i], bidHashNonce))
	}

	result := entry.Result
	allocations := result.Allocations
	if allocations == nil {
		allocations = []core.Allocation{}
	}

	return &marketapi.RoundReceiptUserData{
		SessionID:        sessionID,
		Round:            entry.Round,
		RoundID:          entry.RoundID,
		RoundHash:        core.ComputeRoundHash(sessionID, entry.Round, roundNonce),
		RoundNonce:       roundNonce,
		ReservePrice:     entry.ReservePrice,
		Premium:          premium,
		Supply:           entry.Supply,
		ClearingPrice:    result.ClearingPrice,
		MarketPrice:      result.MarketPrice,
		Capacity:         result.Capacity,
		Sold:             result.Sold,
		Unsold:           result.Unsold,
		NextReserve:      entry.NextReserve,
		Allocations:      allocations,
		AllocationsHash:  core.ComputeAllocationsHash(allocations, allocationsNonce),
		AllocationsNonce: allocationsNonce,
		BidHashes:        bidHashes,
		BidHashNonce:     bidHashNonce,
		Timestamp:        entry.Timestamp,
	}, nil
}

func generateNonce() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("entropy generation failed: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
