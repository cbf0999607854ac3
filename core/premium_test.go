package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestPriceWithPremium(t *testing.T) {
	tests := []struct {
		name          string
		clearingPrice float64
		premium       float64
		expected      float64
	}{
		{"premium of 100% doubles the price", 150, 1.0, 300},
		{"premium of 200% triples the price", 1000, 2.0, 3000},
		{"fractional premium", 2.5, 1.5, 6.25},
		{"no demand round", 0, 2.0, 0},
		{"decimal precision", 0.1, 1.2, 0.22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.expected, PriceWithPremium(tt.clearingPrice, tt.premium))
		})
	}
}

func TestPremiumConventionShared(t *testing.T) {
	// The ceiling at reserve R is the market price of a round cleared at R.
	for _, reserve := range []float64{1, 100, 1234.5} {
		for _, premium := range []float64{1.0, 2.5, 5.0} {
			check.Equal(t, CeilingPrice(reserve, premium), PriceWithPremium(reserve, premium))
		}
	}
}

func TestMonetaryProduct(t *testing.T) {
	check.Equal(t, 1500.0, MonetaryProduct(150, 10))
	check.Equal(t, 0.03, MonetaryProduct(0.1, 0.3))
}
