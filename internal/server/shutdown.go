package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// drainTimeout bounds how long open requests get to finish after a signal.
const drainTimeout = 30 * time.Second

// listening is the state of a started server.
type listening struct {
	http *http.Server
	ln   net.Listener
}

func (s *Server) current() *listening {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Addr returns the bound listen address, or "" before the server starts.
func (s *Server) Addr() string {
	l := s.current()
	if l == nil {
		return ""
	}
	return l.ln.Addr().String()
}

// Shutdown stops every running comparison and drains open requests.
// Calling it on a server that never started does nothing.
func (s *Server) Shutdown(ctx context.Context) error {
	l := s.current()
	if l == nil {
		return nil
	}
	return s.drain(ctx, l)
}

func (s *Server) drain(ctx context.Context, l *listening) error {
	if n := s.runs.stopAll(); n > 0 {
		slog.Info("stopped active runs", "count", n)
	}
	return l.http.Shutdown(ctx)
}

// ListenAndServeWithShutdown serves until SIGINT, SIGTERM or Shutdown.
// The cleanup scheduler, when configured, runs for the lifetime of the server.
func (s *Server) ListenAndServeWithShutdown() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	l := &listening{http: &http.Server{Handler: s.Handler()}, ln: ln}
	s.mu.Lock()
	s.live = l
	s.mu.Unlock()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	served := make(chan error, 1)
	go func() {
		err := l.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	if s.cleanup != nil {
		s.cleanup.Start()
		defer s.cleanup.Stop()
	}

	slog.Info("server started", "addr", ln.Addr().String())
	close(s.ready)

	select {
	case err := <-served:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigs:
		slog.Info("received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := s.drain(ctx, l); err != nil {
		slog.Error("shutdown failed", "error", err)
		return err
	}
	<-served
	slog.Info("server shutdown complete")
	return nil
}
