package core

import (
	"fmt"
	"math"
)

const (
	// DefaultReserveIncrement is the minimum step applied when a round sells out.
	DefaultReserveIncrement = 100.0

	// DefaultMinimumReserve is the floor the reserve never drops below.
	DefaultMinimumReserve = 1.0
)

// AdvanceReserve computes the next round's reserve price from this round's
// capacity, using DefaultReserveIncrement as the sell-out step.
//
//	next = reserve * exp(k * (capacity - desired))
//	next = max(next, reserve + increment)   when capacity >= 1
//	next = max(next, minimum)
func AdvanceReserve(reservePrice, capacity, desiredCapacity, k, minimumReserve float64) float64 {
	return advanceReserve(reservePrice, capacity, desiredCapacity, k, DefaultReserveIncrement, minimumReserve)
}

func advanceReserve(reservePrice, capacity, desiredCapacity, k, increment, minimumReserve float64) float64 {
	next := reservePrice * math.Exp(k*(capacity-desiredCapacity))
	if capacity >= 1.0 {
		next = math.Max(next, reservePrice+increment)
	}
	return math.Max(next, minimumReserve)
}

// ReserveControllerConfig holds the parameters of the reserve feedback law.
type ReserveControllerConfig struct {
	// DesiredCapacity is the utilization target in [0, 1]
	DesiredCapacity float64 `json:"desired_capacity" yaml:"desiredCapacity"`

	// Sensitivity is the gain k; 0 freezes the reserve
	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`

	// Increment is the minimum step when a round sells out
	Increment float64 `json:"increment" yaml:"increment"`

	// MinimumReserve is the reserve floor (must be positive)
	MinimumReserve float64 `json:"minimum_reserve" yaml:"minimumReserve"`
}

// DefaultReserveControllerConfig returns the dashboard defaults: target 0.9, k 2.
func DefaultReserveControllerConfig() ReserveControllerConfig {
	return ReserveControllerConfig{
		DesiredCapacity: 0.9,
		Sensitivity:     2.0,
		Increment:       DefaultReserveIncrement,
		MinimumReserve:  DefaultMinimumReserve,
	}
}

// Validate checks for invalid controller parameters.
func (c ReserveControllerConfig) Validate() error {
	if !(c.DesiredCapacity >= 0 && c.DesiredCapacity <= 1) {
		return fmt.Errorf("%w: desiredCapacity must be between 0 and 1, got %.2f", ErrInvalidControllerArg, c.DesiredCapacity)
	}
	if !(c.Sensitivity >= 0) || math.IsInf(c.Sensitivity, 1) {
		return fmt.Errorf("%w: sensitivity must be >= 0, got %.2f", ErrInvalidControllerArg, c.Sensitivity)
	}
	if !(c.Increment >= 0) || math.IsInf(c.Increment, 1) {
		return fmt.Errorf("%w: increment must be >= 0, got %.2f", ErrInvalidControllerArg, c.Increment)
	}
	if !(c.MinimumReserve > 0) || math.IsInf(c.MinimumReserve, 1) {
		return fmt.Errorf("%w: minimumReserve must be > 0, got %.2f", ErrInvalidControllerArg, c.MinimumReserve)
	}
	return nil
}

// ReserveController owns the current reserve price for a sequence of rounds.
// It is not safe for concurrent use; callers that accept concurrent rounds
// must serialize Advance with the round that produced the capacity.
type ReserveController struct {
	config  ReserveControllerConfig
	reserve float64
}

// NewReserveController starts a controller at initialReserve, raised to the
// configured minimum if needed.
func NewReserveController(config ReserveControllerConfig, initialReserve float64) (*ReserveController, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !(initialReserve >= 0) || math.IsInf(initialReserve, 1) {
		return nil, fmt.Errorf("%w: got %.4f", ErrNegativeReserve, initialReserve)
	}

	return &ReserveController{
		config:  config,
		reserve: math.Max(initialReserve, config.MinimumReserve),
	}, nil
}

// Reserve returns the reserve price for the next round.
func (c *ReserveController) Reserve() float64 {
	return c.reserve
}

// Config returns the controller parameters.
func (c *ReserveController) Config() ReserveControllerConfig {
	return c.config
}

// Advance applies the feedback law for a completed round and returns the new reserve.
func (c *ReserveController) Advance(capacity float64) float64 {
	c.reserve = advanceReserve(c.reserve, capacity, c.config.DesiredCapacity,
		c.config.Sensitivity, c.config.Increment, c.config.MinimumReserve)
	return c.reserve
}
