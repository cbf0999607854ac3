package core

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeBidHash computes the commitment hash for a submitted bid.
// This is used by receipt generation and by receipt validation.
//
// Formula: SHA256(bidder_id + "|" + sprintf("%.6f", quantity) + "|" + sprintf("%.6f", price) + "|" + nonce)
//
// Quantity and price are formatted to exactly 6 decimal places to ensure consistent
// hashing regardless of how the float is represented in memory.
func ComputeBidHash(bidderID string, quantity, price float64, nonce string) string {
	data := fmt.Sprintf("%s|%.6f|%.6f|%s", bidderID, quantity, price, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeRoundHash computes the hash binding a receipt to its session and round.
//
// Formula: SHA256(session_id + "|" + round + "|" + nonce)
func ComputeRoundHash(sessionID string, round int, nonce string) string {
	data := fmt.Sprintf("%s|%d|%s", sessionID, round, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeAllocationsHash computes the hash over a round's allocations.
//
// Formula: SHA256(nonce + "|" + sorted_allocations)
// where sorted_allocations = "bidder1:quantity1@price1|bidder2:quantity2@price2|..." (sorted by bidder)
func ComputeAllocationsHash(allocations []Allocation, nonce string) string {
	data := nonce

	// Sort by bidder to ensure deterministic hash calculation
	sorted := make([]Allocation, len(allocations))
	copy(sorted, allocations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BidderID < sorted[j].BidderID
	})

	for _, a := range sorted {
		data += fmt.Sprintf("|%s:%.6f@%.6f", a.BidderID, a.Quantity, a.PricePaid)
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
