package market

import (
	"time"

	"github.com/GaryBoone/GoStats/stats"

	"github.com/cloudx-io/coretime/core"
)

// HistoryEntry records one round together with the reserve it cleared against.
type HistoryEntry struct {
	SessionID    string           `json:"session_id"`
	Round        int              `json:"round"`
	RoundID      string           `json:"round_id"`
	ReservePrice float64          `json:"reserve_price"` // in effect for this round
	NextReserve  float64          `json:"next_reserve"`  // produced by this round's capacity
	Supply       float64          `json:"supply"`
	Result       core.RoundResult `json:"result"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Stat summarizes one series across rounds.
type Stat struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Total  float64 `json:"total"`
}

// NewStat computes a Stat over data. An empty series yields a zero Stat.
func NewStat(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}
	return Stat{
		Min:    stats.StatsMin(data),
		Max:    stats.StatsMax(data),
		Mean:   stats.StatsMean(data),
		StdDev: stats.StatsPopulationStandardDeviation(data),
		Total:  stats.StatsSum(data),
	}
}

// Summary aggregates a session's completed rounds.
type Summary struct {
	Rounds            int     `json:"rounds"`
	CurrentReserve    float64 `json:"current_reserve"`
	CurrentCeiling    float64 `json:"current_ceiling"` // highest admissible bid next round
	LastClearingPrice float64 `json:"last_clearing_price"`
	Revenue           float64 `json:"revenue"` // sum of clearing price * sold
	ClearingPrice     Stat    `json:"clearing_price"`
	ReservePrice      Stat    `json:"reserve_price"`
	Capacity          Stat    `json:"capacity"`
	Sold              Stat    `json:"sold"`
	SoldOutRounds     int     `json:"sold_out_rounds"`
}

// Summarize computes a Summary from a round-indexed history whose first entry
// is the round-0 seed.
func Summarize(history []HistoryEntry, premium float64) Summary {
	if len(history) == 0 {
		return Summary{}
	}

	last := history[len(history)-1]
	summary := Summary{
		CurrentReserve:    last.NextReserve,
		CurrentCeiling:    core.CeilingPrice(last.NextReserve, premium),
		LastClearingPrice: last.Result.ClearingPrice,
	}

	var clearing, reserves, capacities, sold []float64
	for _, entry := range history {
		if entry.Round == 0 {
			continue
		}
		summary.Rounds++
		summary.Revenue += entry.Result.Revenue()
		if entry.Result.Capacity >= 1.0 {
			summary.SoldOutRounds++
		}

		clearing = append(clearing, entry.Result.ClearingPrice)
		reserves = append(reserves, entry.ReservePrice)
		capacities = append(capacities, entry.Result.Capacity)
		sold = append(sold, entry.Result.Sold)
	}

	summary.ClearingPrice = NewStat(clearing)
	summary.ReservePrice = NewStat(reserves)
	summary.Capacity = NewStat(capacities)
	summary.Sold = NewStat(sold)
	return summary
}
