package core

// Bid represents a single sealed bid for cores in one round.
type Bid struct {
	BidderID string  `json:"bidder_id"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	TieKey   float64 `json:"tie_key"` // uniform in [0,1), lower wins ties
}

// FilteredBid is a bid that passed ceiling clamping and the reserve filter.
// Within a sorted sequence CumulativeQuantity is the running demand up to and
// including this bid.
type FilteredBid struct {
	Bid
	SubmittedPrice     float64 `json:"submitted_price"`
	Clamped            bool    `json:"clamped,omitempty"`
	CumulativeQuantity float64 `json:"cumulative_quantity"`
}

// ClampEvent reports bids whose price was capped at the ceiling.
type ClampEvent struct {
	BidderIDs []string `json:"bidder_ids"`
	Ceiling   float64  `json:"ceiling"`
}

// ClearingOutcome contains the result of clearing one round's demand curve.
type ClearingOutcome struct {
	// ClearingPrice is the uniform price; 0 when no bid survived filtering
	ClearingPrice float64

	// Capacity is the ratio of cleared quantity to supply (1.0 when supply was reached)
	Capacity float64

	// Ceiling is reserve * (1 + premium)
	Ceiling float64

	// SortedBids is the filtered demand curve in allocation priority order
	SortedBids []FilteredBid

	// Clamp is nil when no bid exceeded the ceiling
	Clamp *ClampEvent
}

// Allocation is the quantity granted to one bidder and the price paid per core.
type Allocation struct {
	BidderID  string  `json:"bidder_id"`
	PricePaid float64 `json:"price_paid"`
	Quantity  float64 `json:"quantity"`
}

// RawBids holds the parallel quantity and price inputs collected for a round.
type RawBids struct {
	Quantities []float64 `json:"quantities" yaml:"quantities"`
	Prices     []float64 `json:"prices" yaml:"prices"`
}

// RoundResult contains the complete results of running one round.
type RoundResult struct {
	ClearingPrice float64       `json:"clearing_price"`
	MarketPrice   float64       `json:"market_price"`
	Capacity      float64       `json:"capacity"`
	Sold          float64       `json:"sold"`
	Unsold        float64       `json:"unsold"`
	Allocations   []Allocation  `json:"allocations"`
	SortedBids    []FilteredBid `json:"sorted_bids"`
	Clamp         *ClampEvent   `json:"clamp,omitempty"`
}

// Revenue returns clearing price times quantity sold.
func (r *RoundResult) Revenue() float64 {
	return MonetaryProduct(r.ClearingPrice, r.Sold)
}
