package core

// RunRound executes one round of the core auction: normalization → clearing →
// allocation → premium pricing. It holds no state between calls.
//
// Parameters:
//   - raw: Parallel quantity and price inputs, one entry per bidder
//   - bidderIDs: Bidder identities matching raw (nil assigns P1..Pn)
//   - supply: Cores offered this round
//   - reservePrice: Reserve in effect for this round
//   - premium: Fractional markup shared by the ceiling and the market price
//   - randSource: Tie-break source (nil uses crypto/rand)
//
// Returns:
//   - RoundResult with prices, capacity, sold/unsold totals and allocations
//   - error for configuration problems only
func RunRound(
	raw RawBids,
	bidderIDs []string,
	supply float64,
	reservePrice float64,
	premium float64,
	randSource RandSource,
) (*RoundResult, error) {
	if err := ValidateMarketParams(supply, reservePrice, premium); err != nil {
		return nil, err
	}

	if bidderIDs == nil {
		bidderIDs = DefaultBidderIDs(len(raw.Quantities))
	}

	// Step 1: Attach bidder identities and tie keys
	bids, err := NormalizeBids(raw.Quantities, raw.Prices, bidderIDs, randSource)
	if err != nil {
		return nil, err
	}

	// Step 2: Clear the demand curve
	outcome, err := Clear(bids, supply, reservePrice, premium)
	if err != nil {
		return nil, err
	}

	// Step 3: Ration supply in priority order
	allocations, sold, unsold := Allocate(outcome.SortedBids, supply, outcome.ClearingPrice)

	// Step 4: Post the market price
	return &RoundResult{
		ClearingPrice: outcome.ClearingPrice,
		MarketPrice:   PriceWithPremium(outcome.ClearingPrice, premium),
		Capacity:      outcome.Capacity,
		Sold:          sold,
		Unsold:        unsold,
		Allocations:   allocations,
		SortedBids:    outcome.SortedBids,
		Clamp:         outcome.Clamp,
	}, nil
}
