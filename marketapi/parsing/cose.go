package parsing

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Sign1 holds the four elements of an untagged COSE_Sign1 array:
// [protected, unprotected, payload, signature].
type Sign1 struct {
	Protected []byte
	Payload   []byte
	Signature []byte
}

// DecodeSign1 splits a COSE_Sign1 array into its parts.
func DecodeSign1(coseBytes []byte) (*Sign1, error) {
	var coseArray []any
	if err := cbor.Unmarshal(coseBytes, &coseArray); err != nil {
		return nil, fmt.Errorf("parse COSE array: %w", err)
	}

	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	protected, ok := coseArray[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid protected headers")
	}

	payload, ok := coseArray[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}

	signature, ok := coseArray[3].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid signature")
	}

	return &Sign1{Protected: protected, Payload: payload, Signature: signature}, nil
}

// ExtractCOSEPayload returns the payload (element 2) of a COSE_Sign1 array.
func ExtractCOSEPayload(coseBytes []byte) ([]byte, error) {
	sign1, err := DecodeSign1(coseBytes)
	if err != nil {
		return nil, err
	}
	return sign1.Payload, nil
}

// SigStructure builds the bytes a COSE_Sign1 signature covers:
// ["Signature1", protected, external_aad, payload] with an empty external_aad.
func SigStructure(protected, payload []byte) ([]byte, error) {
	sigStructure := []any{
		"Signature1",
		protected,
		[]byte{},
		payload,
	}

	data, err := cbor.Marshal(sigStructure)
	if err != nil {
		return nil, fmt.Errorf("marshal Sig_structure: %w", err)
	}
	return data, nil
}
