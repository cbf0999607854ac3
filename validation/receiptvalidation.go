// Package validation verifies round receipts: that they were signed by a trusted
// signer, that a bidder's bid was included, and that the recorded round obeys
// uniform pricing and supply conservation.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/marketapi"
)

// BidCommitment is a bid as the bidder submitted it.
type BidCommitment struct {
	BidderID string
	Quantity float64
	Price    float64 // submitted price, before any ceiling clamp
}

// RoundReceiptInput contains all inputs needed for round receipt validation
type RoundReceiptInput struct {
	Receipt marketapi.ReceiptCOSE

	// ExpectedPublicKey pins a PEM signer key; empty trusts only a Nitro certificate chain
	ExpectedPublicKey string

	// SessionID, when set, must match the receipt's session
	SessionID string

	// Bid, when set, must be committed in the receipt's bid hashes
	Bid *BidCommitment

	// ExpectedClearingPrice, when set, must match the receipt
	ExpectedClearingPrice *float64

	// ExpectedAllocation, when set, must match the quantity allocated to Bid.BidderID
	ExpectedAllocation *float64
}

// ValidateRoundReceipt validates a round receipt and verifies:
// - Signature and signer trust
// - Session binding
// - Bid inclusion
// - Clearing price bounds and uniform pricing
// - Supply conservation and market price
// - Allocations hash and the bidder's allocation
//
// Returns:
//   - RoundValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed receipt)
func ValidateRoundReceipt(input *RoundReceiptInput) (*RoundValidationResult, error) {
	if input.ExpectedAllocation != nil && input.Bid == nil {
		return nil, fmt.Errorf("expected allocation requires a bid")
	}

	doc, err := input.Receipt.ParseRoundReceipt()
	if err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}

	result := &RoundValidationResult{
		BaseValidationResult: validateSigner(input, doc),
	}

	userData := doc.UserData
	if userData == nil {
		result.ValidationDetails = append(result.ValidationDetails, "Receipt user data missing")
		return result, nil
	}

	result.SessionValid = validateSession(input, userData, result)
	result.BidHashValid = validateBidHash(input, userData, result)
	result.ClearingPriceValid = validateClearingPrice(input, userData, result)
	result.UniformPricingValid = validateUniformPricing(userData, result)
	result.ConservationValid = validateConservation(userData, result)
	result.MarketPriceValid = validateMarketPrice(userData, result)
	result.AllocationsHashValid = validateAllocationsHash(userData, result)
	result.AllocationValid = validateAllocation(input, userData, result)

	return result, nil
}

func validateSigner(input *RoundReceiptInput, doc *marketapi.RoundReceiptDoc) BaseValidationResult {
	result := BaseValidationResult{ValidationDetails: []string{}}

	cert, certKey, err := ParseCertificate(doc.Certificate)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signing certificate unusable: %v", err))
		return result
	}

	if err := VerifyCOSESignature(input.Receipt, certKey); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, err.Error())
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")
	}

	if len(doc.CABundle) > 0 {
		if err := ValidateCertificateChain(cert, doc.CABundle, doc.Timestamp); err != nil {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Certificate chain validation failed: %v", err))
		} else {
			result.CertificateValid = true
			result.ValidationDetails = append(result.ValidationDetails, "Certificate chain verified")
		}
	}

	if input.ExpectedPublicKey != "" {
		expected, err := ParsePublicKeyPEM(input.ExpectedPublicKey)
		switch {
		case err != nil:
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Expected public key unusable: %v", err))
		case expected.Equal(certKey):
			result.PublicKeyMatch = true
			result.ValidationDetails = append(result.ValidationDetails, "Signer key matches expected public key")
		default:
			result.ValidationDetails = append(result.ValidationDetails, "Signer key does not match expected public key")
		}
	}

	if !result.Trusted() && len(doc.CABundle) == 0 && input.ExpectedPublicKey == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Self-signed receipt: supply the signer's public key to trust it")
	}
	return result
}

func validateSession(input *RoundReceiptInput, userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	if userData.RoundNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Round nonce missing from receipt")
		return false
	}

	computed := core.ComputeRoundHash(userData.SessionID, userData.Round, userData.RoundNonce)
	if computed != userData.RoundHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Round hash mismatch: computed %s, receipt has %s", computed, userData.RoundHash))
		return false
	}

	if input.SessionID != "" && input.SessionID != userData.SessionID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Session mismatch: expected %s, receipt has %s", input.SessionID, userData.SessionID))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Round %d of session %s", userData.Round, userData.SessionID))
	return true
}

func validateBidHash(input *RoundReceiptInput, userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	if input.Bid == nil {
		result.ValidationDetails = append(result.ValidationDetails, "No bid supplied, inclusion not checked")
		return true
	}

	if userData.BidHashNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Bid hash nonce missing from receipt")
		return false
	}

	computedHash := core.ComputeBidHash(input.Bid.BidderID, input.Bid.Quantity, input.Bid.Price, userData.BidHashNonce)
	for _, committed := range userData.BidHashes {
		if computedHash == committed {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid hash found in receipt: %s", computedHash))
			return true
		}
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid hash NOT found in receipt. Computed: %s", computedHash))
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Total hashes in receipt: %d", len(userData.BidHashes)))
	return false
}

func validateClearingPrice(input *RoundReceiptInput, userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	clearing := userData.ClearingPrice

	if input.ExpectedClearingPrice != nil && !core.AmountsEqual(*input.ExpectedClearingPrice, clearing) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Clearing price mismatch: expected %.6f, receipt has %.6f", *input.ExpectedClearingPrice, clearing))
		return false
	}

	if clearing == 0 {
		if userData.Sold != 0 {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Zero clearing price with %.6f cores sold", userData.Sold))
			return false
		}
		result.ValidationDetails = append(result.ValidationDetails, "No valid bids: clearing price 0")
		return true
	}

	if !core.BidMeetsReserve(clearing, userData.ReservePrice) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Clearing price %.6f below reserve %.6f", clearing, userData.ReservePrice))
		return false
	}

	ceiling := core.CeilingPrice(userData.ReservePrice, userData.Premium)
	if clearing > ceiling {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Clearing price %.6f above ceiling %.6f", clearing, ceiling))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Clearing price validation passed: %.6f (reserve %.6f, ceiling %.6f)", clearing, userData.ReservePrice, ceiling))
	return true
}

func validateUniformPricing(userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	for _, allocation := range userData.Allocations {
		if allocation.PricePaid != userData.ClearingPrice {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Non-uniform price: %s paid %.6f, clearing price %.6f",
				allocation.BidderID, allocation.PricePaid, userData.ClearingPrice))
			return false
		}
	}
	result.ValidationDetails = append(result.ValidationDetails, "Every allocation pays the clearing price")
	return true
}

func validateConservation(userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	allocated := decimal.Zero
	for _, allocation := range userData.Allocations {
		allocated = allocated.Add(decimal.NewFromFloat(allocation.Quantity))
	}

	if !core.AmountsEqual(allocated.InexactFloat64(), userData.Sold) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Allocated %s cores but receipt reports %.6f sold", allocated.StringFixed(6), userData.Sold))
		return false
	}

	total := decimal.NewFromFloat(userData.Sold).Add(decimal.NewFromFloat(userData.Unsold))
	if !core.AmountsEqual(total.InexactFloat64(), userData.Supply) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Sold + unsold = %s, supply %.6f", total.StringFixed(6), userData.Supply))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Supply conserved: %.6f sold + %.6f unsold", userData.Sold, userData.Unsold))
	return true
}

func validateMarketPrice(userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	expected := core.PriceWithPremium(userData.ClearingPrice, userData.Premium)
	if !core.AmountsEqual(expected, userData.MarketPrice) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Market price mismatch: expected %.6f, receipt has %.6f", expected, userData.MarketPrice))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Market price validation passed: %.6f", userData.MarketPrice))
	return true
}

func validateAllocationsHash(userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	if userData.AllocationsNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Allocations nonce missing from receipt")
		return false
	}

	computed := core.ComputeAllocationsHash(userData.Allocations, userData.AllocationsNonce)
	if computed != userData.AllocationsHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Allocations hash mismatch: computed %s, receipt has %s", computed, userData.AllocationsHash))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, "Allocations hash validation passed")
	return true
}

func validateAllocation(input *RoundReceiptInput, userData *marketapi.RoundReceiptUserData, result *RoundValidationResult) bool {
	if input.ExpectedAllocation == nil {
		return true
	}

	got := core.AllocationFor(userData.Allocations, input.Bid.BidderID)
	if !core.AmountsEqual(*input.ExpectedAllocation, got) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Allocation mismatch for %s: expected %.6f, receipt has %.6f",
			input.Bid.BidderID, *input.ExpectedAllocation, got))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Allocation validation passed: %s received %.6f", input.Bid.BidderID, got))
	return true
}
