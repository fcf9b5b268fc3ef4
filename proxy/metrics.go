// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// codeProxied is the observability-convention status label emitted for
// a request that the forwarder completed successfully. It is not a real
// HTTP status code the proxy itself ever writes to the client.
const codeProxied = "302"

// Metrics holds the two counters the dispatcher increments and the
// handler that exposes them, backed by a private registry rather than
// the global default so that multiple Metrics instances never collide
// in the same process (useful in tests).
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	internalErrorsTotal *prometheus.CounterVec
}

// NewMetrics constructs a Metrics with both counters registered against
// a fresh, private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proxy_requests_total",
		Help: "Total requests dispatched, labeled by emitted status code and matched resource.",
	}, []string{"code", "resource"})

	internalErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "internal_errors_total",
		Help: "Total uncaught internal errors, labeled by emitted status code.",
	}, []string{"code"})

	registry.MustRegister(requestsTotal, internalErrorsTotal)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		internalErrorsTotal: internalErrorsTotal,
	}
}

// ObserveRequest increments proxy_requests_total for one dispatched
// request.
func (m *Metrics) ObserveRequest(code, resource string) {
	m.requestsTotal.WithLabelValues(code, resource).Inc()
}

// ObserveInternalError increments internal_errors_total.
func (m *Metrics) ObserveInternalError(code string) {
	m.internalErrorsTotal.WithLabelValues(code).Inc()
}

// Handler returns the HTTP handler for the metrics server: GET /ready
// answers "200 OK Ready", every other path answers with the current
// metrics in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	metricsHandler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK Ready")
	})
	mux.Handle("/", metricsHandler)
	return mux
}
