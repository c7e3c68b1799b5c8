// Package server wraps an http.Server with ordered graceful shutdown.
// Grounded on HPNChanel-penshort's internal/server/server.go (OnShutdown
// LIFO registration, two-phase Run/gracefulShutdown split), translated
// from slog to the teacher's logrus so logging stays consistent with the
// rest of this module.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownFunc releases one component during graceful shutdown.
type ShutdownFunc func(ctx context.Context) error

// Server wraps http.Server with a registry of components to close, in
// reverse registration order, after the listener stops accepting.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	log             *logrus.Entry
	shutdownFuncs   []namedShutdown
	mu              sync.Mutex
}

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// New builds a Server bound to addr serving handler.
func New(handler http.Handler, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration, log *logrus.Entry) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// OnShutdown registers fn to run during graceful shutdown. Components are
// closed in reverse registration order: the last-registered resource is
// the first to close, after the HTTP listener has already stopped.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, namedShutdown{name: name, fn: fn})
}

// Run serves until SIGINT/SIGTERM, then drains registered components.
func (s *Server) Run() error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.log.WithField("signal", sig.String()).Info("shutdown signal received")
		return s.gracefulShutdown()
	}
}

func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.httpServer.SetKeepAlivesEnabled(false)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("http server shutdown error")
	} else {
		s.log.Info("http server stopped")
	}

	s.mu.Lock()
	funcs := s.shutdownFuncs
	s.mu.Unlock()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		entry := funcs[i]
		s.log.WithField("component", entry.name).Info("shutting down component")
		if err := entry.fn(ctx); err != nil {
			s.log.WithError(err).WithField("component", entry.name).Error("component shutdown error")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.log.WithField("component", entry.name).Info("component stopped")
	}

	return firstErr
}
