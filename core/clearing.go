package core

import (
	"github.com/shopspring/decimal"
)

// Clear runs the clearing engine for one round: ceiling clamp → reserve filter →
// priority ranking → clearing-price discovery on the cumulative demand curve.
//
// Parameters:
//   - bids: Normalized bids with tie keys already drawn
//   - supply: Cores offered this round (must be positive)
//   - reservePrice: Price floor (must be non-negative)
//   - premium: Fractional markup; the ceiling is reservePrice * (1 + premium)
//
// Returns:
//   - ClearingOutcome with clearing price, capacity, the ranked demand curve and any clamp event
//   - error only for invalid supply, reserve or premium
//
// Clearing rule:
//  1. When no bid survives filtering, price and capacity are both 0
//  2. The first ranked bid whose cumulative quantity reaches supply sets the price; capacity is 1
//  3. When total demand stays below supply, the reserve is the price and capacity is demand / supply
func Clear(bids []Bid, supply, reservePrice, premium float64) (*ClearingOutcome, error) {
	if err := ValidateMarketParams(supply, reservePrice, premium); err != nil {
		return nil, err
	}

	// Step 1: Cap prices at the ceiling
	ceiling := CeilingPrice(reservePrice, premium)
	clampedBids, clamp := ClampToCeiling(bids, ceiling)

	// Step 2: Drop bids below reserve or without quantity
	eligibleBids, _ := EnforceReserve(clampedBids, reservePrice)
	if len(eligibleBids) == 0 {
		return &ClearingOutcome{
			ClearingPrice: 0,
			Capacity:      0,
			Ceiling:       ceiling,
			SortedBids:    []FilteredBid{},
			Clamp:         clamp,
		}, nil
	}

	// Step 3: Rank and accumulate demand
	ranked := RankBids(eligibleBids)

	// Step 4: Find the first position where demand reaches supply
	supplyDecimal := decimal.NewFromFloat(supply)
	outcome := &ClearingOutcome{
		Ceiling:    ceiling,
		SortedBids: ranked,
		Clamp:      clamp,
	}

	cumulative := decimal.Zero
	for _, bid := range ranked {
		cumulative = cumulative.Add(decimal.NewFromFloat(bid.Quantity))
		if cumulative.GreaterThanOrEqual(supplyDecimal) {
			outcome.ClearingPrice = bid.Price
			outcome.Capacity, _ = decimal.Min(supplyDecimal, cumulative).Div(supplyDecimal).Float64()
			return outcome, nil
		}
	}

	// Demand-constrained: nothing pushed the price above the floor
	outcome.ClearingPrice = reservePrice
	outcome.Capacity, _ = cumulative.Div(supplyDecimal).Float64()
	return outcome, nil
}
