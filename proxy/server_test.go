// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/openroute/gatekeeper/lib/clock"
)

func TestServer_startAndShutdown(t *testing.T) {
	paths, _ := testPaths(t)

	reloader := NewReloader(paths, 0, clock.Real(), discardLogger())
	metrics := NewMetrics()
	forwarder := NewForwarder(discardLogger())
	dispatcher := NewDispatcher(reloader, forwarder, metrics, []string{"x-authorization"}, discardLogger())

	server := NewServer("127.0.0.1:0", "127.0.0.1:0", reloader, dispatcher, metrics, discardLogger())
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestServer_readyEndpoint(t *testing.T) {
	paths, _ := testPaths(t)

	reloader := NewReloader(paths, 0, clock.Real(), discardLogger())
	metrics := NewMetrics()
	forwarder := NewForwarder(discardLogger())
	dispatcher := NewDispatcher(reloader, forwarder, metrics, []string{"x-authorization"}, discardLogger())

	server := NewServer("127.0.0.1:0", "127.0.0.1:0", reloader, dispatcher, metrics, discardLogger())
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + server.MetricsAddr() + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
