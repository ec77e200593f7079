package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/zeusync/npcbrain/internal/core/observability/log"
)

// Start listens on addr and serves the stream in the background. It returns
// the bound address, which differs from addr when addr uses port 0.
func (s *Stream) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return "", ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: s.Handler()}
	s.server = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Stream server failed", log.Err(err))
		}
	}()

	s.logger.Info("Stream listening", log.String("addr", ln.Addr().String()))
	return ln.Addr().String(), nil
}

// Shutdown stops accepting connections, disconnects every client and
// unsubscribes from the bus.
func (s *Stream) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	for c := range s.clients {
		s.removeLocked(c)
	}
	s.mu.Unlock()

	if s.sub != nil {
		_ = s.sub.Cancel()
	}
	if srv == nil {
		return ErrServerNotRunning
	}
	return srv.Shutdown(ctx)
}
