// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// Forwarder adapts net/http/httputil.ReverseProxy to the dispatcher's
// narrow contract: forward one request to one upstream target, and
// surface a connection or streaming failure as a distinct, recognizable
// error rather than letting ReverseProxy write its own error response.
type Forwarder struct {
	logger *slog.Logger
}

// NewForwarder constructs a Forwarder that logs upstream failures with
// logger.
func NewForwarder(logger *slog.Logger) *Forwarder {
	return &Forwarder{logger: logger}
}

// Forward proxies r to target and streams the upstream response back
// through w. FlushInterval is set to -1 (flush after every write) so
// that chunked and server-sent-event responses are forwarded as they
// arrive rather than buffered. Connection and streaming failures are
// captured via a custom ErrorHandler, which writes a bare 502 status to
// w in place of ReverseProxy's default error response; Forward then
// returns the failure as a *ForwarderError.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, target *url.URL, stripHeaders map[string]struct{}) error {
	var forwardErr error

	director := func(req *http.Request) {
		addForwardedHeaders(req)

		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host

		for name := range stripHeaders {
			req.Header.Del(name)
		}
	}

	reverseProxy := &httputil.ReverseProxy{
		Director:      director,
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			forwardErr = &ForwarderError{Target: target.String(), Err: err}
			f.logger.Error("forward: upstream error", "target", target.String(), "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	reverseProxy.ServeHTTP(w, r)
	return forwardErr
}

// addForwardedHeaders appends X-Forwarded-For with the caller's address
// and sets X-Forwarded-Host/X-Forwarded-Proto from the original request,
// preserving any values already present from an upstream proxy hop.
func addForwardedHeaders(req *http.Request) {
	if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			req.Header.Set("X-Forwarded-For", prior+", "+clientIP)
		} else {
			req.Header.Set("X-Forwarded-For", clientIP)
		}
	}
	if req.Header.Get("X-Forwarded-Host") == "" {
		req.Header.Set("X-Forwarded-Host", req.Host)
	}
	proto := "http"
	if req.TLS != nil {
		proto = "https"
	}
	if req.Header.Get("X-Forwarded-Proto") == "" {
		req.Header.Set("X-Forwarded-Proto", proto)
	}
}
