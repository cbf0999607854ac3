package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RankBids orders eligible bids by allocation priority: price descending, then
// tie key ascending. Bids equal on both keep their input order. The running
// cumulative quantity is filled in on the returned copy.
func RankBids(bids []FilteredBid) []FilteredBid {
	ranked := make([]FilteredBid, len(bids))
	copy(ranked, bids)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Price != ranked[j].Price {
			return ranked[i].Price > ranked[j].Price
		}
		return ranked[i].TieKey < ranked[j].TieKey
	})

	cumulative := decimal.Zero
	for i := range ranked {
		cumulative = cumulative.Add(decimal.NewFromFloat(ranked[i].Quantity))
		ranked[i].CumulativeQuantity, _ = cumulative.Float64()
	}

	return ranked
}

// BidderOrder returns the bidder IDs of a ranked sequence.
func BidderOrder(ranked []FilteredBid) []string {
	order := make([]string, len(ranked))
	for i, bid := range ranked {
		order[i] = bid.BidderID
	}
	return order
}
