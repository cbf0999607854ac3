package core

import (
	"github.com/shopspring/decimal"
)

// Allocate rations supply across ranked bids in priority order.
// Each bidder receives min(requested, remaining) and pays clearingPrice; the
// walk stops once remaining supply reaches zero, so the marginal bidder may be
// partially filled and every bidder after it receives nothing.
//
// Quantities are summed in decimal and converted to float64 once each, so
// sold + unsold == supply and the allocated quantities sum to sold at
// monetaryPrecision (see AmountsEqual), not bit for bit.
func Allocate(sorted []FilteredBid, supply, clearingPrice float64) (allocations []Allocation, sold, unsold float64) {
	allocations = make([]Allocation, 0, len(sorted))
	if len(sorted) == 0 {
		return allocations, 0, supply
	}

	supplyDecimal := decimal.NewFromFloat(supply)
	remaining := supplyDecimal

	for _, bid := range sorted {
		if !remaining.IsPositive() {
			break
		}

		take := decimal.Min(decimal.NewFromFloat(bid.Quantity), remaining)
		if !take.IsPositive() {
			continue
		}

		quantity, _ := take.Float64()
		allocations = append(allocations, Allocation{
			BidderID:  bid.BidderID,
			PricePaid: clearingPrice,
			Quantity:  quantity,
		})
		remaining = remaining.Sub(take)
	}

	sold, _ = supplyDecimal.Sub(remaining).Float64()
	unsold, _ = remaining.Float64()
	return allocations, sold, unsold
}

// AllocationFor returns the quantity allocated to bidderID, or 0.
func AllocationFor(allocations []Allocation, bidderID string) float64 {
	for _, a := range allocations {
		if a.BidderID == bidderID {
			return a.Quantity
		}
	}
	return 0
}
