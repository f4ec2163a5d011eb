package chat

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/confluxus/confluxus/internal/chat/history"
)

// Server owns the listener, the session registry and the message history.
// Each accepted connection gets its own handler goroutine; the accept loop
// never blocks on any individual connection.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	hist     *history.Log
	handler  *Handler
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer derives the shared key material and wires the core together.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	hist, err := history.NewLog(cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	key := DeriveKey(cfg.SharedSecret)
	reg := NewRegistry(cfg.MaxUsername)
	bcast := NewBroadcaster(reg, logger)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		reg:     reg,
		hist:    hist,
		handler: NewHandler(cfg, key, reg, bcast, hist, logger),
	}, nil
}

// Start binds the listen address and launches the accept loop. A bind
// failure is fatal and surfaced to the caller; it is not retried.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr reports the bound listen address, useful when the configured port
// was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every live session, then waits for all
// handlers to finish their closing sequence. The message history does not
// survive shutdown.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, sess := range s.reg.Snapshot() {
		sess.Close()
	}
	s.wg.Wait()

	s.hist.Clear()
	historyEntries.Set(0)

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			// listener closed, normal shutdown
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.Handle(conn)
		}()
	}
}
