package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-logr/logr"
	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/coretime/config"
	"github.com/cloudx-io/coretime/market"
	"github.com/cloudx-io/coretime/receipt"
)

// MarketServer serves one market session over a stream listener.
type MarketServer struct {
	cfg      config.ServerConfig
	driver   *market.Driver
	attester receipt.Attester // nil disables receipts
	log      logr.Logger
}

// NewMarketServer wires a driver and receipt attester to the listener settings.
func NewMarketServer(cfg config.ServerConfig, driver *market.Driver, attester receipt.Attester, log logr.Logger) *MarketServer {
	return &MarketServer{
		cfg:      cfg,
		driver:   driver,
		attester: attester,
		log:      log,
	}
}

func (s *MarketServer) listen() (net.Listener, error) {
	switch s.cfg.Network {
	case "vsock":
		listener, err := vsock.Listen(s.cfg.Port, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener: %w", err)
		}
		return listener, nil
	case "tcp":
		listener, err := net.Listen("tcp", s.cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener: %w", err)
		}
		return listener, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", s.cfg.Network)
	}
}

// Start listens and serves until ctx is cancelled.
func (s *MarketServer) Start(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.log.Info("Market server listening", "network", s.cfg.Network, "address", listener.Addr().String())
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener with a bounded worker pool. When every
// worker is busy new connections are closed immediately.
func (s *MarketServer) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			s.log.Error(err, "Failed to close listener")
		}
	}()

	semaphore := make(chan struct{}, s.cfg.MaxWorkers)
	s.log.Info("Worker pool initialized", "maxWorkers", s.cfg.MaxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error(err, "Failed to accept connection")
			continue
		}

		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }()
				s.handleConnection(c)
			}(conn)
		default:
			s.log.Info("No workers available, rejecting connection")
			if err := conn.Close(); err != nil {
				s.log.Error(err, "Failed to close rejected connection")
			}
		}
	}
}

func (s *MarketServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Errorf("%v", r), "Panic recovered in handleConnection")
		}
		if err := conn.Close(); err != nil {
			s.log.Error(err, "Failed to close connection")
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	var request json.RawMessage
	if err := json.NewDecoder(conn).Decode(&request); err != nil {
		s.log.Error(err, "Failed to read request")
		return
	}

	response := s.handleRequest(request)

	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.log.Error(err, "Failed to encode response")
	}
}
