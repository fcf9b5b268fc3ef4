// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

// Gatekeeper is a token-authenticating, role-authorizing HTTP reverse
// proxy with file-based, hot-reloaded configuration.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/openroute/gatekeeper/lib/clock"
	"github.com/openroute/gatekeeper/lib/version"
	"github.com/openroute/gatekeeper/proxy"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := proxy.OptionsFromEnv()

	var httpPort int
	var metricsPort int
	var configDir string
	var showVersion bool

	pflag.IntVar(&httpPort, "http-port", opts.HTTPPort, "proxy listen port")
	pflag.IntVar(&metricsPort, "metrics-port", opts.MetricsPort, "metrics listen port")
	pflag.StringVar(&configDir, "config-dir", "", "override CONFIG_DIR for all four config files")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("gatekeeper %s\n", version.Info())
		return nil
	}

	opts.HTTPPort = httpPort
	opts.MetricsPort = metricsPort
	if configDir != "" {
		opts.Paths = proxy.FilePathsIn(configDir, opts.Paths)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gatekeeper",
		"version", version.Info(),
		"http_port", opts.HTTPPort,
		"metrics_port", opts.MetricsPort,
		"reload_interval", opts.ReloadInterval,
	)

	reloader := proxy.NewReloader(opts.Paths, opts.ReloadInterval, clock.Real(), logger)
	metrics := proxy.NewMetrics()
	forwarder := proxy.NewForwarder(logger)
	dispatcher := proxy.NewDispatcher(reloader, forwarder, metrics, opts.AuthHeaders, logger)

	server := proxy.NewServer(
		fmt.Sprintf(":%d", opts.HTTPPort),
		fmt.Sprintf(":%d", opts.MetricsPort),
		reloader, dispatcher, metrics, logger,
	)

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
