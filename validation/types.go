package validation

// BaseValidationResult contains the signature and trust checks common to every receipt.
type BaseValidationResult struct {
	// CertificateValid is set when the signing certificate chains to the Nitro root
	CertificateValid bool

	// SignatureValid is set when the COSE signature verifies under the certificate key
	SignatureValid bool

	// PublicKeyMatch is set when the certificate key equals the expected public key
	PublicKeyMatch bool

	ValidationDetails []string
}

// Trusted returns true if the signer is either an attested enclave or the expected key.
func (r *BaseValidationResult) Trusted() bool {
	return r.CertificateValid || r.PublicKeyMatch
}

// RoundValidationResult contains validation results for a round receipt.
type RoundValidationResult struct {
	BaseValidationResult
	SessionValid         bool
	BidHashValid         bool
	ClearingPriceValid   bool
	UniformPricingValid  bool
	ConservationValid    bool
	MarketPriceValid     bool
	AllocationsHashValid bool
	AllocationValid      bool
}

// IsValid returns true if all round receipt checks passed
func (r *RoundValidationResult) IsValid() bool {
	return r.SignatureValid && r.Trusted() &&
		r.SessionValid && r.BidHashValid && r.ClearingPriceValid && r.UniformPricingValid &&
		r.ConservationValid && r.MarketPriceValid && r.AllocationsHashValid && r.AllocationValid
}
