package core

import (
	"github.com/shopspring/decimal"
)

// Premium convention: premium is a fractional markup. A premium of 1.0 lets
// bidders go up to twice the reserve and posts a market price of twice the
// clearing price. The ceiling and the posted market price both multiply by
// (1 + premium).

// PriceWithPremium returns the market price bidders pay, clearingPrice * (1 + premium).
func PriceWithPremium(clearingPrice, premium float64) float64 {
	return ApplyPremium(clearingPrice, premium)
}

// ApplyPremium multiplies price by (1 + premium) using decimal arithmetic.
func ApplyPremium(price, premium float64) float64 {
	priceDecimal := decimal.NewFromFloat(price)
	factorDecimal := decimal.NewFromFloat(premium).Add(decimal.NewFromInt(1))

	result, _ := priceDecimal.Mul(factorDecimal).Float64()
	return result
}

// MonetaryProduct multiplies two amounts using decimal arithmetic.
func MonetaryProduct(a, b float64) float64 {
	result, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Float64()
	return result
}
