package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	mu       sync.Mutex
	addr     string
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewServer returns a *Server listening on addr once started. A nil logger
// disables logging.
func NewServer(addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:   addr,
		logger: logger.Named("Server"),
		server: &http.Server{
			Handler:           http.NewServeMux(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

func (s *Server) WithHandlers(handlers HandlerPatternMap) {
	for p, h := range handlers {
		s.server.Handler.(*http.ServeMux).HandleFunc(p, h)
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go s.serve(listener)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	s.logger.Info("serving JSON-RPC", zap.Stringer("addr", listener.Addr()))

	err := s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server failed unexpectedly", zap.Error(err))
	}
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop waits for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
