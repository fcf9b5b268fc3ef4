// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

// Package proxy implements a token-authenticating, role-authorizing HTTP
// reverse proxy.
//
// Requests are matched against a declared list of [Route]s (method, host,
// and path, the latter two as regular expressions). Unless a route is
// marked anonymous, the caller is authenticated by looking up an opaque
// token — read from the first configured header present on the request —
// in the token index, then authorized against a grant index built from the
// caller's roles (or bypassed entirely for admin users). Allowed requests
// are forwarded to the route's upstream target; every other outcome maps to
// a fixed HTTP status (401, 403, 404, 500, 502) and a metrics counter.
//
// Configuration lives in four YAML documents (routes, users, roles,
// tokens), loaded and validated into a single immutable [Snapshot] by
// [LoadAndBuild]. [Reloader] polls the four files' mtimes on a timer and
// publishes a freshly built Snapshot via a single atomic pointer swap,
// so [Dispatcher] always serves from one consistent, never-partially
// mutated view of the configuration — even while a reload is in flight.
//
// [Server] wires a [Dispatcher] and a [Reloader] into two net/http
// listeners: the proxy's own listener, and a secondary metrics listener
// that exposes Prometheus-format counters plus a /ready endpoint.
package proxy
