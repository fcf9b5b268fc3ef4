// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const anonymousUser = "anonymous"

// Dispatcher implements the request dispatch pipeline: match, then
// (unless anonymous) authenticate, then authorize, then forward.
// Implements http.Handler.
type Dispatcher struct {
	reloader    *Reloader
	forwarder   *Forwarder
	metrics     *Metrics
	authHeaders []string // already lowercased
	logger      *slog.Logger
}

// NewDispatcher constructs a Dispatcher. authHeaders must already be
// lowercased, in priority order.
func NewDispatcher(reloader *Reloader, forwarder *Forwarder, metrics *Metrics, authHeaders []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		reloader:    reloader,
		forwarder:   forwarder,
		metrics:     metrics,
		authHeaders: authHeaders,
		logger:      logger,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := d.logger.With("request_id", requestID, "method", r.Method, "path", r.URL.Path)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("dispatch: panic recovered", "panic", rec)
			d.emitInternalError(w, "500")
		}
	}()

	snapshot := d.reloader.Current()

	route, ok := snapshot.Match(r)
	if !ok {
		logger.Info("dispatch: no route matched")
		d.emit(w, http.StatusNotFound, "")
		return
	}

	resource := route.resource
	logger = logger.With("resource", resource)

	var user string
	if route.anonymous {
		user = anonymousUser
	} else {
		authenticatedUser, authenticated := Authenticate(snapshot, d.authHeaders, r.Header)
		if !authenticated {
			logger.Info("dispatch: authentication failed")
			d.emit(w, http.StatusUnauthorized, resource)
			return
		}
		user = authenticatedUser

		allow, hasAny := snapshot.Allow(user, resource)
		if !hasAny || !allowsMethod(allow, r.Method) {
			logger.Info("dispatch: authorization denied", "user", user)
			d.emit(w, http.StatusForbidden, resource)
			return
		}
	}

	logger = logger.With("user", user)

	if err := d.forwarder.Forward(w, r, route.target, route.stripHeaders); err != nil {
		// Forward's ErrorHandler has already written the 502 status to w;
		// only the counter remains to be recorded.
		logger.Error("dispatch: forwarder error", "error", err)
		d.metrics.ObserveRequest(strconv.Itoa(http.StatusBadGateway), resource)
		return
	}

	logger.Info("dispatch: proxied")
	d.metrics.ObserveRequest(codeProxied, resource)
}

// allowsMethod reports whether allow permits method, normalizing to
// uppercase for comparison. Wildcard is checked before the specific
// method, per the authorizer algorithm.
func allowsMethod(allow Allow, method string) bool {
	if allow.Wildcard {
		return true
	}
	_, ok := allow.Methods[strings.ToUpper(method)]
	return ok
}

// emit writes status to w and increments the requests-total counter for
// code/resource.
func (d *Dispatcher) emit(w http.ResponseWriter, status int, resource string) {
	w.WriteHeader(status)
	d.metrics.ObserveRequest(strconv.Itoa(status), resource)
}

func (d *Dispatcher) emitInternalError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusInternalServerError)
	d.metrics.ObserveInternalError(code)
}
