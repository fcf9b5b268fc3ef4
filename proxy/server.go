// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server owns the two listening HTTP servers — the public dispatcher and
// the metrics/readiness endpoint — plus the Reloader that feeds both.
type Server struct {
	httpAddr    string
	metricsAddr string

	reloader   *Reloader
	dispatcher *Dispatcher
	metrics    *Metrics
	logger     *slog.Logger

	httpServer    *http.Server
	metricsServer *http.Server

	httpListener    net.Listener
	metricsListener net.Listener
}

// NewServer wires a Reloader, Dispatcher, and Metrics into a Server
// listening on httpAddr (the public proxy) and metricsAddr (readiness
// and metrics exposition).
func NewServer(httpAddr, metricsAddr string, reloader *Reloader, dispatcher *Dispatcher, metrics *Metrics, logger *slog.Logger) *Server {
	return &Server{
		httpAddr:    httpAddr,
		metricsAddr: metricsAddr,
		reloader:    reloader,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start performs the reloader's initial synchronous load, then begins
// listening on both addresses. It returns once both listeners are bound;
// serving happens in background goroutines. An error here means the
// proxy must not be considered started.
func (s *Server) Start() error {
	if err := s.reloader.Start(); err != nil {
		return fmt.Errorf("start reloader: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:         s.httpAddr,
		Handler:      s.dispatcher,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout to allow streaming responses
	}
	httpListener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	s.httpListener = httpListener

	s.metricsServer = &http.Server{
		Addr:         s.metricsAddr,
		Handler:      s.metrics.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	metricsListener, err := net.Listen("tcp", s.metricsAddr)
	if err != nil {
		httpListener.Close()
		return fmt.Errorf("listen on %s: %w", s.metricsAddr, err)
	}
	s.metricsListener = metricsListener

	s.logger.Info("proxy server started", "address", s.httpAddr)
	go func() {
		if err := s.httpServer.Serve(httpListener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("metrics server started", "address", s.metricsAddr)
	go func() {
		if err := s.metricsServer.Serve(metricsListener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// HTTPAddr returns the actual listening address of the public proxy
// server, including the port the kernel chose if httpAddr requested
// port 0. Valid only after a successful Start.
func (s *Server) HTTPAddr() string {
	return s.httpListener.Addr().String()
}

// MetricsAddr returns the actual listening address of the metrics
// server, including the port the kernel chose if metricsAddr requested
// port 0. Valid only after a successful Start.
func (s *Server) MetricsAddr() string {
	return s.metricsListener.Addr().String()
}

// Shutdown stops the reload timer and closes both HTTP servers,
// allowing in-flight requests to complete per ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down proxy server")
	s.reloader.Stop()

	err := s.httpServer.Shutdown(ctx)
	if metricsErr := s.metricsServer.Shutdown(ctx); metricsErr != nil && err == nil {
		err = metricsErr
	}
	return err
}
