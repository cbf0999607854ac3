package core

import (
	"math"

	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places for core prices (0.0001 precision)

// BidMeetsReserve returns true if the bid price meets or exceeds the reserve price.
// The comparison is exact: reserves produced by the controller carry more than
// monetaryPrecision places, and a bid that rounds up to the reserve is still below it.
func BidMeetsReserve(bidPrice, reservePrice float64) bool {
	if !isFinite(bidPrice) {
		return false
	}

	return decimal.NewFromFloat(bidPrice).GreaterThanOrEqual(decimal.NewFromFloat(reservePrice))
}

// AmountsEqual reports whether two prices or quantities agree to monetaryPrecision
// decimal places. Float results of decimal arithmetic, such as sold and unsold,
// are only conserved at this precision.
func AmountsEqual(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(monetaryPrecision).Equal(decimal.NewFromFloat(b).Round(monetaryPrecision))
}

// CeilingPrice returns the highest admissible bid price, reserve * (1 + premium).
func CeilingPrice(reservePrice, premium float64) float64 {
	return ApplyPremium(reservePrice, premium)
}

// ClampToCeiling caps every bid price above the ceiling at the ceiling.
// Clamped bids stay eligible; their bidder IDs are reported in the returned
// event, which is nil when nothing was clamped. The input slice is not modified.
func ClampToCeiling(bids []Bid, ceiling float64) ([]FilteredBid, *ClampEvent) {
	clamped := make([]FilteredBid, len(bids))
	var clampedIDs []string

	for i, bid := range bids {
		clamped[i] = FilteredBid{Bid: bid, SubmittedPrice: bid.Price}

		if bid.Price > ceiling {
			clamped[i].Price = ceiling
			clamped[i].Clamped = true
			clampedIDs = append(clampedIDs, bid.BidderID)
		}
	}

	if len(clampedIDs) == 0 {
		return clamped, nil
	}

	return clamped, &ClampEvent{BidderIDs: clampedIDs, Ceiling: ceiling}
}

// EnforceReserve filters bids on the reserve price and on quantity.
// Returns eligible bids and the bidder IDs of rejected bids.
// A bid is rejected when its price is below reserve or its quantity is not positive.
func EnforceReserve(bids []FilteredBid, reservePrice float64) (eligible []FilteredBid, rejectedBidderIDs []string) {
	eligibleBids := make([]FilteredBid, 0, len(bids))
	rejectedIDs := make([]string, 0)

	for _, bid := range bids {
		if bid.Quantity > 0 && isFinite(bid.Quantity) && BidMeetsReserve(bid.Price, reservePrice) {
			eligibleBids = append(eligibleBids, bid)
		} else {
			rejectedIDs = append(rejectedIDs, bid.BidderID)
		}
	}

	return eligibleBids, rejectedIDs
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
