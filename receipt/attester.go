package receipt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/coretime/marketapi/parsing"
)

// Attester signs user data into a COSE_Sign1 document. The Nitro NSM handle
// satisfies it, as does LocalSigner.
type Attester interface {
	Attest(options enclave.AttestationOptions) ([]byte, error)
}

// NitroAttester returns the NSM handle when running inside a Nitro enclave.
func NitroAttester() (Attester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

// DefaultModuleID identifies receipts signed outside an enclave.
const DefaultModuleID = "coretime-local"

// LocalSigner produces Nitro-shaped receipts signed with an ECDSA P-384 key
// and a self-signed certificate.
type LocalSigner struct {
	moduleID    string
	key         *ecdsa.PrivateKey
	signer      cose.Signer
	certificate []byte
	now         func() time.Time
}

// NewLocalSigner creates a signer for key, generating a fresh P-384 key when key is nil.
func NewLocalSigner(moduleID string, key *ecdsa.PrivateKey) (*LocalSigner, error) {
	if moduleID == "" {
		moduleID = DefaultModuleID
	}

	if key == nil {
		generated, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		key = generated
	}
	if key.Curve != elliptic.P384() {
		return nil, fmt.Errorf("signing key must be P-384, got %s", key.Curve.Params().Name)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES384, key)
	if err != nil {
		return nil, fmt.Errorf("create COSE signer: %w", err)
	}

	certificate, err := selfSignedCertificate(moduleID, key)
	if err != nil {
		return nil, err
	}

	return &LocalSigner{
		moduleID:    moduleID,
		key:         key,
		signer:      signer,
		certificate: certificate,
		now:         time.Now,
	}, nil
}

// LoadLocalSigner creates a signer from a PEM-encoded EC or PKCS#8 private key.
func LoadLocalSigner(moduleID string, keyPEM []byte) (*LocalSigner, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode signing key PEM")
	}

	var key *ecdsa.PrivateKey
	switch block.Type {
	case "EC PRIVATE KEY":
		parsed, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		key = parsed
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
		}
		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signing key is not ECDSA")
		}
		key = ecKey
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}

	return NewLocalSigner(moduleID, key)
}

func selfSignedCertificate(moduleID string, key *ecdsa.PrivateKey) ([]byte, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate serial: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: moduleID},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create signing certificate: %w", err)
	}
	return der, nil
}

// ModuleID returns the module id written into every document.
func (s *LocalSigner) ModuleID() string {
	return s.moduleID
}

// Certificate returns the DER signing certificate.
func (s *LocalSigner) Certificate() []byte {
	return s.certificate
}

// PublicKeyPEM returns the verification key in PEM format.
func (s *LocalSigner) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// Attest builds a receipt document around the user data and signs it as an
// untagged COSE_Sign1 array, the same layout the NSM returns.
func (s *LocalSigner) Attest(options enclave.AttestationOptions) ([]byte, error) {
	doc := parsing.ReceiptDocument{
		ModuleID:    s.moduleID,
		Digest:      "SHA384",
		Timestamp:   uint64(s.now().UnixMilli()),
		PCRs:        map[uint64][]byte{},
		Certificate: s.certificate,
		CABundle:    [][]byte{},
		UserData:    options.UserData,
		Nonce:       options.Nonce,
	}

	payload, err := cbor.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt document: %w", err)
	}

	protected, err := cbor.Marshal(map[int64]int64{1: int64(cose.AlgorithmES384)})
	if err != nil {
		return nil, fmt.Errorf("marshal protected headers: %w", err)
	}

	toBeSigned, err := parsing.SigStructure(protected, payload)
	if err != nil {
		return nil, err
	}

	signature, err := s.signer.Sign(rand.Reader, toBeSigned)
	if err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	return cbor.Marshal([]any{
		protected,
		map[int64]any{},
		payload,
		signature,
	})
}

// GenerateSigningKeyPEM creates a P-384 key for LoadLocalSigner.
func GenerateSigningKeyPEM() ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signing key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}
