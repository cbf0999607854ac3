package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/market"
)

// ScriptBid is one bid line in a round script.
type ScriptBid struct {
	Bidder   string  `yaml:"bidder"`
	Quantity float64 `yaml:"quantity"`
	Price    float64 `yaml:"price"`
}

// ScriptRound is one round in a round script. Supply 0 uses the market default.
type ScriptRound struct {
	Supply float64     `yaml:"supply,omitempty"`
	Bids   []ScriptBid `yaml:"bids"`
}

// Script is a sequence of rounds to replay through a market session.
//
//	rounds:
//	  - bids:
//	      - {bidder: alice, quantity: 6, price: 250}
//	      - {bidder: bob, quantity: 5, price: 150}
//	  - supply: 12
//	    bids: []
type Script struct {
	Rounds []ScriptRound `yaml:"rounds"`
}

// ParseScript decodes a YAML (or JSON) round script.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse round script: %w", err)
	}
	for i, round := range script.Rounds {
		if round.Supply < 0 {
			return nil, fmt.Errorf("round %d: supply must be >= 0, got %.2f", i+1, round.Supply)
		}
	}
	return &script, nil
}

// LoadScript reads and parses a round script from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read round script: %w", err)
	}
	return ParseScript(data)
}

// RoundInputs converts the script into driver inputs. Bids without a bidder
// name get positional IDs P1..Pn within their round.
func (s *Script) RoundInputs() []market.RoundInput {
	inputs := make([]market.RoundInput, 0, len(s.Rounds))
	for _, round := range s.Rounds {
		input := market.RoundInput{
			Supply: round.Supply,
			Bids: core.RawBids{
				Quantities: make([]float64, len(round.Bids)),
				Prices:     make([]float64, len(round.Bids)),
			},
			BidderIDs: make([]string, len(round.Bids)),
		}
		for i, bid := range round.Bids {
			input.Bids.Quantities[i] = bid.Quantity
			input.Bids.Prices[i] = bid.Price
			input.BidderIDs[i] = bid.Bidder
			if bid.Bidder == "" {
				input.BidderIDs[i] = fmt.Sprintf("P%d", i+1)
			}
		}
		inputs = append(inputs, input)
	}
	return inputs
}
