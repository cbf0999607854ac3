package market

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/coretime/core"
)

func TestNewStat(t *testing.T) {
	stat := NewStat([]float64{1, 2, 3, 4})

	check.Equal(t, 1.0, stat.Min)
	check.Equal(t, 4.0, stat.Max)
	check.Equal(t, 2.5, stat.Mean)
	check.Equal(t, 10.0, stat.Total)
	check.True(t, stat.StdDev > 1.11 && stat.StdDev < 1.12)

	check.Equal(t, Stat{}, NewStat(nil))
}

func TestSummarize_SeedOnly(t *testing.T) {
	driver := newTestDriver(t)

	summary := driver.Summary()

	check.Equal(t, 0, summary.Rounds)
	check.Equal(t, 0.0, summary.Revenue)
	check.Equal(t, 1000.0, summary.CurrentReserve)
	check.Equal(t, 3000.0, summary.CurrentCeiling)
	check.Equal(t, Stat{}, summary.Capacity)
}

func TestSummarize_AccumulatesRevenue(t *testing.T) {
	driver := newTestDriver(t)

	_, err := driver.Run([]RoundInput{
		// Demand 9 at reserve 1000: revenue 9000
		{Bids: core.RawBids{Quantities: []float64{5, 4}, Prices: []float64{1500, 1200}}},
		// Oversubscribed at 2000: revenue 20000
		{Bids: core.RawBids{Quantities: []float64{8, 8}, Prices: []float64{2500, 2000}}},
	})
	assert.NoError(t, err)

	summary := driver.Summary()

	check.Equal(t, 2, summary.Rounds)
	check.Equal(t, 29000.0, summary.Revenue)
	check.Equal(t, 1, summary.SoldOutRounds)
	check.Equal(t, 2000.0, summary.LastClearingPrice)
	check.Equal(t, driver.Reserve(), summary.CurrentReserve)
	check.Equal(t, core.CeilingPrice(driver.Reserve(), 2.0), summary.CurrentCeiling)
	check.Equal(t, 0.9, summary.Capacity.Min)
	check.Equal(t, 1.0, summary.Capacity.Max)
	check.Equal(t, 19.0, summary.Sold.Total)
	check.Equal(t, 1000.0, summary.ReservePrice.Min)
}

func TestSummarize_Empty(t *testing.T) {
	check.Equal(t, Summary{}, Summarize(nil, 2.0))
}
