// Package market drives sequences of auction rounds and feeds each round's
// utilization back into the reserve price for the next one.
package market

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/cloudx-io/coretime/core"
)

// Params holds the fixed market parameters shared by every round of a session.
type Params struct {
	// Supply is the default number of cores offered per round
	Supply float64

	// Premium is the fractional markup for the ceiling and the market price
	Premium float64

	// InitialReserve is the reserve in effect for the first round
	InitialReserve float64

	// Controller configures the reserve feedback law
	Controller core.ReserveControllerConfig
}

// Validate checks the parameters before a session starts.
func (p Params) Validate() error {
	if err := core.ValidateMarketParams(p.Supply, p.InitialReserve, p.Premium); err != nil {
		return err
	}
	return p.Controller.Validate()
}

// RoundInput is one round's bids and, optionally, a supply override.
type RoundInput struct {
	Bids      core.RawBids `json:"bids" yaml:"bids"`
	BidderIDs []string     `json:"bidder_ids,omitempty" yaml:"bidderIds,omitempty"`
	Supply    float64      `json:"supply,omitempty" yaml:"supply,omitempty"` // 0 uses Params.Supply
}

// Driver owns the reserve state and round history of one simulated market.
// Step is safe for concurrent use: rounds are serialized so that each round's
// reserve update completes before the next round clears.
type Driver struct {
	mu         sync.Mutex
	sessionID  string
	params     Params
	controller *core.ReserveController
	randSource core.RandSource
	history    []HistoryEntry
	log        logr.Logger
	now        func() time.Time
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for clamp warnings and round records.
func WithLogger(log logr.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// WithRandSource sets the tie-break source shared by every round.
func WithRandSource(source core.RandSource) Option {
	return func(d *Driver) {
		d.randSource = source
	}
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(d *Driver) {
		d.sessionID = id
	}
}

// WithClock overrides the time source used to stamp history entries.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver starts a session at the initial reserve. History is seeded with a
// round-0 entry holding the initial reserve and an unsold supply.
func NewDriver(params Params, opts ...Option) (*Driver, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market parameters: %w", err)
	}

	controller, err := core.NewReserveController(params.Controller, params.InitialReserve)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reserve controller: %w", err)
	}

	d := &Driver{
		sessionID:  uuid.NewString(),
		params:     params,
		controller: controller,
		log:        logr.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.history = []HistoryEntry{d.initialEntry()}
	return d, nil
}

func (d *Driver) initialEntry() HistoryEntry {
	return HistoryEntry{
		SessionID:    d.sessionID,
		Round:        0,
		RoundID:      uuid.NewString(),
		ReservePrice: d.controller.Reserve(),
		NextReserve:  d.controller.Reserve(),
		Supply:       d.params.Supply,
		Result: core.RoundResult{
			Unsold:      d.params.Supply,
			Allocations: []core.Allocation{},
			SortedBids:  []core.FilteredBid{},
		},
		Timestamp: d.now(),
	}
}

// SessionID returns the identifier of this market session.
func (d *Driver) SessionID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// Params returns the session parameters.
func (d *Driver) Params() Params {
	return d.params
}

// Reserve returns the reserve price that the next round will clear against.
func (d *Driver) Reserve() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.controller.Reserve()
}

// Step clears one round at the current reserve, records it, and advances the
// reserve from the round's capacity. The entry carries the session it was
// cleared in, which a later Reset does not change. Configuration errors leave
// the state untouched.
func (d *Driver) Step(input RoundInput) (HistoryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	supply := input.Supply
	if supply == 0 {
		supply = d.params.Supply
	}

	reserve := d.controller.Reserve()
	round := len(d.history)

	result, err := core.RunRound(input.Bids, input.BidderIDs, supply, reserve, d.params.Premium, d.randSource)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("round %d: %w", round, err)
	}

	if result.Clamp != nil {
		d.log.Info("Capped bids above ceiling",
			"round", round,
			"bidders", result.Clamp.BidderIDs,
			"ceiling", result.Clamp.Ceiling)
	}

	next := d.controller.Advance(result.Capacity)

	entry := HistoryEntry{
		SessionID:    d.sessionID,
		Round:        round,
		RoundID:      uuid.NewString(),
		ReservePrice: reserve,
		NextReserve:  next,
		Supply:       supply,
		Result:       *result,
		Timestamp:    d.now(),
	}
	d.history = append(d.history, entry)

	d.log.V(1).Info("Round cleared",
		"round", round,
		"reserve", reserve,
		"clearingPrice", result.ClearingPrice,
		"marketPrice", result.MarketPrice,
		"capacity", result.Capacity,
		"sold", result.Sold,
		"unsold", result.Unsold,
		"nextReserve", next)

	return entry, nil
}

// Run steps through every input in order and returns the entries it produced.
// It stops at the first configuration error.
func (d *Driver) Run(inputs []RoundInput) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0, len(inputs))
	for _, input := range inputs {
		entry, err := d.Step(input)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// History returns a copy of the round-indexed history, starting with round 0.
func (d *Driver) History() []HistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	history := make([]HistoryEntry, len(d.history))
	copy(history, d.history)
	return history
}

// Summary computes aggregate statistics over the completed rounds.
func (d *Driver) Summary() Summary {
	return Summarize(d.History(), d.params.Premium)
}

// Reset discards history and restarts the reserve at its initial value under a new session ID.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	controller, err := core.NewReserveController(d.params.Controller, d.params.InitialReserve)
	if err != nil {
		return fmt.Errorf("failed to reset reserve controller: %w", err)
	}
	d.controller = controller
	d.sessionID = uuid.NewString()
	d.history = []HistoryEntry{d.initialEntry()}

	d.log.Info("Market session reset", "session", d.sessionID, "reserve", controller.Reserve())
	return nil
}
