package core

import (
	"errors"
	"fmt"
	"math"
)

// Configuration errors. They are returned before any computation takes place.
var (
	ErrInvalidSupply        = errors.New("supply must be positive")
	ErrInvalidPremium       = errors.New("premium below minimum")
	ErrNegativeReserve      = errors.New("reserve price must be non-negative")
	ErrMismatchedBidInput   = errors.New("bidder, quantity and price inputs differ in length")
	ErrDuplicateBidder      = errors.New("bidder appears more than once in a round")
	ErrInvalidControllerArg = errors.New("invalid reserve controller parameter")
)

// MinPremium is the smallest admissible fractional premium (100%).
const MinPremium = 1.0

// ValidateMarketParams rejects supply, reserve and premium values that make
// clearing meaningless.
func ValidateMarketParams(supply, reservePrice, premium float64) error {
	if !(supply > 0) || math.IsInf(supply, 1) {
		return fmt.Errorf("%w: got %.4f", ErrInvalidSupply, supply)
	}
	if !(reservePrice >= 0) || math.IsInf(reservePrice, 1) {
		return fmt.Errorf("%w: got %.4f", ErrNegativeReserve, reservePrice)
	}
	if !(premium >= MinPremium) || math.IsInf(premium, 1) {
		return fmt.Errorf("%w %.2f: got %.4f", ErrInvalidPremium, MinPremium, premium)
	}
	return nil
}
