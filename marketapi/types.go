// Package marketapi defines the wire types exchanged with the round server and
// the decoded form of round receipts.
package marketapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/marketapi/parsing"
)

// Request types understood by the server.
const (
	TypePing          = "ping"
	TypePong          = "pong"
	TypeRoundRequest  = "round_request"
	TypeRoundResponse = "round_response"
	TypeStateRequest  = "state_request"
	TypeStateResponse = "state_response"
	TypeResetRequest  = "reset_request"
	TypeResetResponse = "reset_response"
	TypeError         = "error"
)

// RoundRequest submits one round of sealed bids.
type RoundRequest struct {
	Type      string       `json:"type"`
	Bids      core.RawBids `json:"bids"`
	BidderIDs []string     `json:"bidder_ids,omitempty"`
	Supply    float64      `json:"supply,omitempty"` // 0 uses the market default
	Timestamp time.Time    `json:"timestamp"`
}

// Input converts the request into a driver input.
func (r RoundRequest) Input() market.RoundInput {
	return market.RoundInput{
		Bids:      r.Bids,
		BidderIDs: r.BidderIDs,
		Supply:    r.Supply,
	}
}

// RoundResponse reports one cleared round.
type RoundResponse struct {
	Type           string               `json:"type"`
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	SessionID      string               `json:"session_id,omitempty"`
	Entry          *market.HistoryEntry `json:"entry,omitempty"`
	Receipt        ReceiptCOSEBase64    `json:"receipt,omitempty"`
	ProcessingTime int64                `json:"processing_time_ms"`
}

// StateResponse carries a session's history and summary.
type StateResponse struct {
	Type      string                `json:"type"`
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	SessionID string                `json:"session_id"`
	Premium   float64               `json:"premium"`
	History   []market.HistoryEntry `json:"history"`
	Summary   market.Summary        `json:"summary"`
}

// ResetResponse acknowledges a session reset.
type ResetResponse struct {
	Type      string  `json:"type"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	SessionID string  `json:"session_id"`
	Reserve   float64 `json:"reserve"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse reports a request the server could not process.
type ErrorResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewErrorResponse builds an ErrorResponse from a formatted message.
func NewErrorResponse(format string, args ...any) ErrorResponse {
	return ErrorResponse{
		Type:    TypeError,
		Success: false,
		Message: fmt.Sprintf(format, args...),
	}
}

// ReceiptDoc is the decoded, JSON-friendly form of a receipt document.
type ReceiptDoc struct {
	// ModuleID identifies the signer (enclave module or local signer)
	ModuleID string `json:"module_id"`

	// Timestamp when the receipt was signed
	Timestamp time.Time `json:"timestamp"`

	// DigestAlgorithm used by the signer (e.g., "SHA384")
	DigestAlgorithm string `json:"digest"`

	// PCRs holds enclave measurements, empty for locally signed receipts
	PCRs map[uint64]string `json:"pcrs,omitempty"`

	// Certificate is the base64 DER signing certificate
	Certificate string `json:"certificate"`

	// CABundle is the base64 DER intermediate chain, empty for self-signed receipts
	CABundle []string `json:"cabundle"`

	// PublicKey is the base64 public key carried in the document, if any
	PublicKey string `json:"public_key"`

	// Nonce for replay protection
	Nonce string `json:"nonce"`
}

// RoundReceiptUserData is the round record embedded in a receipt.
type RoundReceiptUserData struct {
	SessionID        string            `json:"session_id"`
	Round            int               `json:"round"`
	RoundID          string            `json:"round_id"`
	RoundHash        string            `json:"round_hash"`
	RoundNonce       string            `json:"round_nonce"`
	ReservePrice     float64           `json:"reserve_price"`
	Premium          float64           `json:"premium"`
	Supply           float64           `json:"supply"`
	ClearingPrice    float64           `json:"clearing_price"`
	MarketPrice      float64           `json:"market_price"`
	Capacity         float64           `json:"capacity"`
	Sold             float64           `json:"sold"`
	Unsold           float64           `json:"unsold"`
	NextReserve      float64           `json:"next_reserve"`
	Allocations      []core.Allocation `json:"allocations"`
	AllocationsHash  string            `json:"allocations_hash"`
	AllocationsNonce string            `json:"allocations_nonce"`
	BidHashes        []string          `json:"bid_hashes"`
	BidHashNonce     string            `json:"bid_hash_nonce"`
	Timestamp        time.Time         `json:"timestamp"`
}

// RoundReceiptDoc is a receipt document with its decoded round record.
type RoundReceiptDoc struct {
	ReceiptDoc
	UserData *RoundReceiptUserData `json:"user_data"`
}

// ParseReceiptDoc decodes the receipt document and returns it along with the raw user data.
func (r ReceiptCOSE) ParseReceiptDoc() (ReceiptDoc, []byte, error) {
	raw, err := parsing.ParseReceiptDocument(r)
	if err != nil {
		return ReceiptDoc{}, nil, err
	}

	doc := ReceiptDoc{
		ModuleID:        raw.ModuleID,
		Timestamp:       time.UnixMilli(int64(raw.Timestamp)).UTC(),
		DigestAlgorithm: raw.Digest,
		PCRs:            parsing.FormatPCRs(raw.PCRs),
		Certificate:     base64.StdEncoding.EncodeToString(raw.Certificate),
		CABundle:        parsing.EncodeCertificateBundle(raw.CABundle),
		PublicKey:       base64.StdEncoding.EncodeToString(raw.PublicKey),
		Nonce:           string(raw.Nonce),
	}
	return doc, raw.UserData, nil
}

// ParseRoundReceipt decodes the receipt document and its round record.
func (r ReceiptCOSE) ParseRoundReceipt() (*RoundReceiptDoc, error) {
	doc, userDataBytes, err := r.ParseReceiptDoc()
	if err != nil {
		return nil, err
	}

	if len(userDataBytes) == 0 {
		return &RoundReceiptDoc{ReceiptDoc: doc}, nil
	}

	var userData RoundReceiptUserData
	if err := json.Unmarshal(userDataBytes, &userData); err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}

	return &RoundReceiptDoc{
		ReceiptDoc: doc,
		UserData:   &userData,
	}, nil
}
