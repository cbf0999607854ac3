package main

import (
	"encoding/json"
	"time"

	"github.com/cloudx-io/coretime/marketapi"
	"github.com/cloudx-io/coretime/receipt"
)

// handleRequest dispatches one JSON request by its type field.
func (s *MarketServer) handleRequest(data []byte) any {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &baseReq); err != nil {
		s.log.Error(err, "Failed to decode base request")
		return marketapi.NewErrorResponse("Failed to decode request: %v", err)
	}

	s.log.V(1).Info("Received request", "type", baseReq.Type)

	switch baseReq.Type {
	case marketapi.TypePing:
		return marketapi.PongResponse{
			Type:      marketapi.TypePong,
			Message:   "market server is healthy",
			Timestamp: time.Now().Unix(),
		}

	case marketapi.TypeRoundRequest:
		var req marketapi.RoundRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.log.Error(err, "Failed to decode round request")
			return marketapi.NewErrorResponse("Failed to decode round request: %v", err)
		}
		return s.processRound(req)

	case marketapi.TypeStateRequest:
		return marketapi.StateResponse{
			Type:      marketapi.TypeStateResponse,
			Success:   true,
			Message:   "ok",
			SessionID: s.driver.SessionID(),
			Premium:   s.driver.Params().Premium,
			History:   s.driver.History(),
			Summary:   s.driver.Summary(),
		}

	case marketapi.TypeResetRequest:
		if err := s.driver.Reset(); err != nil {
			s.log.Error(err, "Failed to reset market")
			return marketapi.NewErrorResponse("Failed to reset market: %v", err)
		}
		return marketapi.ResetResponse{
			Type:      marketapi.TypeResetResponse,
			Success:   true,
			Message:   "market reset",
			SessionID: s.driver.SessionID(),
			Reserve:   s.driver.Reserve(),
		}

	default:
		return marketapi.NewErrorResponse("Unknown request type: %s", baseReq.Type)
	}
}

func (s *MarketServer) processRound(req marketapi.RoundRequest) marketapi.RoundResponse {
	start := time.Now()
	input := req.Input()

	entry, err := s.driver.Step(input)
	if err != nil {
		s.log.Info("Rejected round request", "error", err.Error())
		return marketapi.RoundResponse{
			Type:           marketapi.TypeRoundResponse,
			Success:        false,
			Message:        err.Error(),
			SessionID:      s.driver.SessionID(),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	response := marketapi.RoundResponse{
		Type:      marketapi.TypeRoundResponse,
		Success:   true,
		Message:   "round cleared",
		SessionID: entry.SessionID,
		Entry:     &entry,
	}

	if s.attester != nil {
		coseBytes, err := receipt.GenerateRoundReceipt(s.attester, entry.SessionID, s.driver.Params().Premium, entry, input)
		if err != nil {
			// The round has already cleared; report it without a receipt
			s.log.Error(err, "Failed to generate round receipt", "round", entry.Round)
			response.Message = "round cleared, receipt unavailable: " + err.Error()
		} else {
			response.Receipt = coseBytes.EncodeBase64()
		}
	}

	response.ProcessingTime = time.Since(start).Milliseconds()
	s.log.Info("Round processed",
		"round", entry.Round,
		"clearingPrice", entry.Result.ClearingPrice,
		"capacity", entry.Result.Capacity,
		"nextReserve", entry.NextReserve,
		"receipt", response.Receipt != "")
	return response
}
