package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
)

// RandSource provides the tie-break keys drawn for each bid.
// This interface enables dependency injection for deterministic testing.
type RandSource interface {
	// Float64 returns a number in [0, 1).
	Float64() float64
}

// tieKeyResolution is 2^53, the number of distinct float64 values in [0,1) with full mantissa.
const tieKeyResolution = 1 << 53

// cryptoRandSource wraps crypto/rand for callers that do not supply a source
type cryptoRandSource struct{}

// Float64 returns a uniformly distributed value in [0, 1).
func (cryptoRandSource) Float64() float64 {
	// rand.Int does not error when using rand.Reader
	// https://pkg.go.dev/crypto/rand#Int
	n, _ := rand.Int(rand.Reader, big.NewInt(tieKeyResolution))
	return float64(n.Int64()) / tieKeyResolution
}

var defaultRandSource RandSource = cryptoRandSource{}

// NewSeededRandSource returns a reproducible source for simulations and tests.
func NewSeededRandSource(seed int64) RandSource {
	return mrand.New(mrand.NewSource(seed))
}

// NormalizeBids pairs each bidder with its requested quantity and price and
// draws an independent tie-break key per bidder. Bidder IDs must be unique
// within the round.
func NormalizeBids(quantities, prices []float64, bidderIDs []string, randSource RandSource) ([]Bid, error) {
	if len(quantities) != len(bidderIDs) || len(prices) != len(bidderIDs) {
		return nil, fmt.Errorf("%w: %d bidders, %d quantities, %d prices",
			ErrMismatchedBidInput, len(bidderIDs), len(quantities), len(prices))
	}

	seen := make(map[string]struct{}, len(bidderIDs))
	for _, bidderID := range bidderIDs {
		if _, ok := seen[bidderID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBidder, bidderID)
		}
		seen[bidderID] = struct{}{}
	}

	if randSource == nil {
		randSource = defaultRandSource
	}

	bids := make([]Bid, len(bidderIDs))
	for i, bidderID := range bidderIDs {
		bids[i] = Bid{
			BidderID: bidderID,
			Quantity: quantities[i],
			Price:    prices[i],
			TieKey:   randSource.Float64(),
		}
	}

	return bids, nil
}

// DefaultBidderIDs returns "P1".."Pn", the labels used when a caller does not name bidders.
func DefaultBidderIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%d", i+1)
	}
	return ids
}
