package marketapi

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// ReceiptCOSE is a raw COSE_Sign1 round receipt.
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is a receipt in standard base64, as returned by the server.
type ReceiptCOSEBase64 string

// ReceiptCOSEURLBase64 is a receipt in unpadded URL-safe base64.
type ReceiptCOSEURLBase64 string

// ReceiptCOSEGzip is a gzip-compressed receipt in unpadded URL-safe base64,
// compact enough to pass as a query parameter.
type ReceiptCOSEGzip string

// EncodeBase64 encodes the receipt as standard base64.
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// EncodeURLSafe encodes the receipt as unpadded URL-safe base64.
func (r ReceiptCOSE) EncodeURLSafe() ReceiptCOSEURLBase64 {
	return ReceiptCOSEURLBase64(base64.RawURLEncoding.EncodeToString(r))
}

// CompressGzip compresses the receipt and encodes it as unpadded URL-safe base64.
// Output is deterministic for a given input.
func (r ReceiptCOSE) CompressGzip() (ReceiptCOSEGzip, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := writer.Write(r); err != nil {
		return "", fmt.Errorf("gzip write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("gzip close: %w", err)
	}
	return ReceiptCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

func (s ReceiptCOSEBase64) String() string {
	return string(s)
}

// Decode decodes standard base64 into raw receipt bytes.
func (s ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReceiptCOSE(data), nil
}

// CompressGzip converts a base64 receipt into its gzip form.
func (s ReceiptCOSEBase64) CompressGzip() (ReceiptCOSEGzip, error) {
	receipt, err := s.Decode()
	if err != nil {
		return "", err
	}
	return receipt.CompressGzip()
}

func (s ReceiptCOSEURLBase64) String() string {
	return string(s)
}

// Decode decodes URL-safe base64, with or without padding.
func (s ReceiptCOSEURLBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(string(s), "="))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64url: %w", err)
	}
	return ReceiptCOSE(data), nil
}

func (s ReceiptCOSEGzip) String() string {
	return string(s)
}

// Decompress decodes and decompresses a gzip receipt.
func (s ReceiptCOSEGzip) Decompress() (ReceiptCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read gzip data: %w", err)
	}
	return ReceiptCOSE(data), nil
}

// DecodeReceipt accepts a receipt in any of the gzip, standard base64 or
// URL-safe base64 forms.
func DecodeReceipt(encoded string) (ReceiptCOSE, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("empty receipt")
	}
	if receipt, err := ReceiptCOSEGzip(encoded).Decompress(); err == nil {
		return receipt, nil
	}
	if receipt, err := ReceiptCOSEBase64(encoded).Decode(); err == nil {
		return receipt, nil
	}
	receipt, err := ReceiptCOSEURLBase64(encoded).Decode()
	if err != nil {
		return nil, fmt.Errorf("receipt is not gzip, base64 or base64url encoded")
	}
	return receipt, nil
}
