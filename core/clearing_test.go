package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestClear_ExampleRound(t *testing.T) {
	// supply=10, reserve=100, premium=1.0 → ceiling=200
	bids := []Bid{
		{BidderID: "P1", Quantity: 6, Price: 250, TieKey: 0.3}, // clamped to 200
		{BidderID: "P2", Quantity: 5, Price: 150, TieKey: 0.6},
		{BidderID: "P3", Quantity: 4, Price: 90, TieKey: 0.1}, // below reserve
	}

	outcome, err := Clear(bids, 10, 100, 1.0)
	assert.NoError(t, err)

	check.Equal(t, 200.0, outcome.Ceiling)
	check.Equal(t, 150.0, outcome.ClearingPrice)
	check.Equal(t, 1.0, outcome.Capacity)

	check.Equal(t, []string{"P1", "P2"}, BidderOrder(outcome.SortedBids))
	check.Equal(t, 200.0, outcome.SortedBids[0].Price)
	check.Equal(t, 250.0, outcome.SortedBids[0].SubmittedPrice)
	check.Equal(t, 6.0, outcome.SortedBids[0].CumulativeQuantity)
	check.Equal(t, 11.0, outcome.SortedBids[1].CumulativeQuantity)

	assert.NotNil(t, outcome.Clamp)
	check.Equal(t, []string{"P1"}, outcome.Clamp.BidderIDs)
	check.Equal(t, 200.0, outcome.Clamp.Ceiling)
}

func TestClear_DemandBelowSupplyClearsAtReserve(t *testing.T) {
	bids := []Bid{
		{BidderID: "P1", Quantity: 3, Price: 120, TieKey: 0.5},
		{BidderID: "P2", Quantity: 4, Price: 110, TieKey: 0.5},
	}

	outcome, err := Clear(bids, 10, 100, 1.0)
	assert.NoError(t, err)

	check.Equal(t, 100.0, outcome.ClearingPrice)
	check.Equal(t, 0.7, outcome.Capacity)
	check.True(t, outcome.Capacity < 1)
	check.Nil(t, outcome.Clamp)
}

func TestClear_NoValidBids(t *testing.T) {
	tests := []struct {
		name string
		bids []Bid
	}{
		{"no bids", []Bid{}},
		{"all below reserve", []Bid{{BidderID: "P1", Quantity: 5, Price: 50}}},
		{"zero quantities", []Bid{{BidderID: "P1", Quantity: 0, Price: 150}}},
		{"negative prices", []Bid{{BidderID: "P1", Quantity: 5, Price: -10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Clear(tt.bids, 10, 100, 1.0)
			assert.NoError(t, err)

			check.Equal(t, 0.0, outcome.ClearingPrice)
			check.Equal(t, 0.0, outcome.Capacity)
			check.NotNil(t, outcome.SortedBids)
			check.Equal(t, 0, len(outcome.SortedBids))
		})
	}
}

func TestClear_ControllerReserveIsAFloor(t *testing.T) {
	controller, err := NewReserveController(DefaultReserveControllerConfig(), 1000)
	assert.NoError(t, err)
	reserve := controller.Advance(1.0) // 1000 * exp(0.2), not a 4-place amount

	t.Run("bid rounding up to the reserve is dropped", func(t *testing.T) {
		outcome, err := Clear([]Bid{{BidderID: "P1", Quantity: 10, Price: 1221.402751}}, 10, reserve, 1.0)
		assert.NoError(t, err)

		check.Equal(t, 0, len(outcome.SortedBids))
		check.Equal(t, 0.0, outcome.ClearingPrice)
	})

	t.Run("clearing price never falls below the reserve", func(t *testing.T) {
		bids := []Bid{
			{BidderID: "P1", Quantity: 6, Price: reserve + 0.00001, TieKey: 0.1},
			{BidderID: "P2", Quantity: 6, Price: reserve - 0.00001, TieKey: 0.2},
		}
		outcome, err := Clear(bids, 10, reserve, 1.0)
		assert.NoError(t, err)

		check.Equal(t, []string{"P1"}, BidderOrder(outcome.SortedBids))
		check.Equal(t, reserve, outcome.ClearingPrice)
		check.True(t, outcome.ClearingPrice >= reserve)
	})
}

func TestClear_ExactSupplyCrossing(t *testing.T) {
	bids := []Bid{
		{BidderID: "P1", Quantity: 4, Price: 300, TieKey: 0.2},
		{BidderID: "P2", Quantity: 6, Price: 250, TieKey: 0.2},
		{BidderID: "P3", Quantity: 6, Price: 220, TieKey: 0.2},
	}

	outcome, err := Clear(bids, 10, 200, 1.0)
	assert.NoError(t, err)

	// Cumulative 4, 10 → reaches supply exactly at P2
	check.Equal(t, 250.0, outcome.ClearingPrice)
	check.Equal(t, 1.0, outcome.Capacity)
}

func TestClear_OversubscribedCapacityIsOne(t *testing.T) {
	bids := []Bid{
		{BidderID: "P1", Quantity: 50, Price: 180, TieKey: 0.4},
		{BidderID: "P2", Quantity: 50, Price: 170, TieKey: 0.4},
	}

	outcome, err := Clear(bids, 10, 100, 1.0)
	assert.NoError(t, err)

	check.Equal(t, 180.0, outcome.ClearingPrice)
	check.Equal(t, 1.0, outcome.Capacity)
}

func TestClear_EffectivePricesNeverExceedCeiling(t *testing.T) {
	source := NewSeededRandSource(3)
	ids := DefaultBidderIDs(30)
	quantities := make([]float64, len(ids))
	prices := make([]float64, len(ids))
	for i := range ids {
		quantities[i] = float64(i%4 + 1)
		prices[i] = float64(50 + i*25)
	}

	bids, err := NormalizeBids(quantities, prices, ids, source)
	assert.NoError(t, err)

	outcome, err := Clear(bids, 20, 300, 1.0)
	assert.NoError(t, err)

	for _, bid := range outcome.SortedBids {
		check.True(t, bid.Price <= 600)
		check.True(t, bid.Price >= 300)
	}
	check.True(t, outcome.ClearingPrice <= outcome.Ceiling)
}

func TestClear_ClearingPriceIsBidOrReserve(t *testing.T) {
	source := NewSeededRandSource(11)
	for round := 0; round < 25; round++ {
		ids := DefaultBidderIDs(8)
		quantities := make([]float64, len(ids))
		prices := make([]float64, len(ids))
		for i := range ids {
			quantities[i] = float64((round+i)%6 + 1)
			prices[i] = float64(80 + ((round*13+i*29)%150))
		}
		bids, err := NormalizeBids(quantities, prices, ids, source)
		assert.NoError(t, err)

		outcome, err := Clear(bids, 15, 100, 1.0)
		assert.NoError(t, err)

		if len(outcome.SortedBids) == 0 {
			check.Equal(t, 0.0, outcome.ClearingPrice)
			continue
		}

		found := outcome.ClearingPrice == 100
		for _, bid := range outcome.SortedBids {
			if bid.Price == outcome.ClearingPrice {
				found = true
			}
		}
		check.True(t, found)
	}
}

func TestClear_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		supply  float64
		reserve float64
		premium float64
		wantErr error
	}{
		{"zero supply", 0, 100, 1.0, ErrInvalidSupply},
		{"negative supply", -5, 100, 1.0, ErrInvalidSupply},
		{"negative reserve", 10, -1, 1.0, ErrNegativeReserve},
		{"premium below minimum", 10, 100, 0.5, ErrInvalidPremium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Clear([]Bid{{BidderID: "P1", Quantity: 1, Price: 150}}, tt.supply, tt.reserve, tt.premium)
			check.Nil(t, outcome)
			check.True(t, errors.Is(err, tt.wantErr))
		})
	}
}
