package parsing

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ReceiptDocument is the CBOR payload of a receipt. It has the same shape as an
// AWS Nitro attestation document so that NSM-signed and locally signed receipts
// parse the same way.
type ReceiptDocument struct {
	ModuleID    string            `cbor:"module_id"`
	Digest      string            `cbor:"digest"`
	Timestamp   uint64            `cbor:"timestamp"` // milliseconds since epoch
	PCRs        map[uint64][]byte `cbor:"pcrs"`
	Certificate []byte            `cbor:"certificate"`
	CABundle    [][]byte          `cbor:"cabundle"`
	PublicKey   []byte            `cbor:"public_key"`
	UserData    []byte            `cbor:"user_data"`
	Nonce       []byte            `cbor:"nonce"`
}

// ParseReceiptDocument extracts and decodes the document carried by a COSE_Sign1 receipt.
func ParseReceiptDocument(coseBytes []byte) (*ReceiptDocument, error) {
	payload, err := ExtractCOSEPayload(coseBytes)
	if err != nil {
		return nil, err
	}

	var doc ReceiptDocument
	if err := cbor.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse receipt document: %w", err)
	}
	return &doc, nil
}

// FormatPCR formats PCR bytes as a hex string.
func FormatPCR(pcrData []byte) string {
	if len(pcrData) == 0 {
		return ""
	}
	return fmt.Sprintf("%x", pcrData)
}

// FormatPCRs formats every non-empty PCR, keyed by index.
func FormatPCRs(rawPCRs map[uint64][]byte) map[uint64]string {
	result := make(map[uint64]string, len(rawPCRs))
	for index, value := range rawPCRs {
		if formatted := FormatPCR(value); formatted != "" {
			result[index] = formatted
		}
	}
	return result
}

// EncodeCertificateBundle converts a certificate bundle to base64 strings.
func EncodeCertificateBundle(bundle [][]byte) []string {
	result := make([]string, len(bundle))
	for i, cert := range bundle {
		result[i] = base64.StdEncoding.EncodeToString(cert)
	}
	return result
}
