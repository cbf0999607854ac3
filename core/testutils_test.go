package core

// sequenceRandSource provides a deterministic tie-key sequence for testing
type sequenceRandSource struct {
	sequence []float64
	index    int
}

func (m *sequenceRandSource) Float64() float64 {
	if m.index >= len(m.sequence) {
		return 0
	}
	val := m.sequence[m.index]
	m.index++
	return val
}

func filtered(bidderID string, quantity, price, tieKey float64) FilteredBid {
	return FilteredBid{
		Bid:            Bid{BidderID: bidderID, Quantity: quantity, Price: price, TieKey: tieKey},
		SubmittedPrice: price,
	}
}
