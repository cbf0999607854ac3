package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/coretime/marketapi"
	"github.com/cloudx-io/coretime/marketapi/parsing"
)

// VerifyCOSESignature verifies an untagged COSE_Sign1 receipt against an ES384 key.
func VerifyCOSESignature(receipt marketapi.ReceiptCOSE, publicKey *ecdsa.PublicKey) error {
	if publicKey == nil {
		return fmt.Errorf("public key is nil")
	}

	sign1, err := parsing.DecodeSign1(receipt)
	if err != nil {
		return err
	}

	toBeSigned, err := parsing.SigStructure(sign1.Protected, sign1.Payload)
	if err != nil {
		return err
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, publicKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	if err := verifier.Verify(toBeSigned, sign1.Signature); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}
	return nil
}

// ParseCertificate decodes a base64 DER certificate with an ECDSA key.
func ParseCertificate(certB64 string) (*x509.Certificate, *ecdsa.PublicKey, error) {
	if certB64 == "" {
		return nil, nil, fmt.Errorf("missing certificate")
	}

	certDER, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, nil, fmt.Errorf("decode certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}

	ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("certificate public key is not ECDSA")
	}
	return cert, ecdsaKey, nil
}

// ParsePublicKeyPEM decodes a PEM "PUBLIC KEY" block holding an ECDSA key.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to decode public key PEM")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}
