// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"net/http"
	"regexp"
	"strings"
)

// Match scans the snapshot's routes in configuration order and returns
// the first one whose method, host, and path criteria all match r. The
// path pattern is matched against the full request-URI line, including
// the query string, not just the path component — a caller that wants
// "/foo" to match "/foo?x=1" must write a pattern that accounts for it.
func (s *Snapshot) Match(r *http.Request) (*compiledRoute, bool) {
	method := strings.ToUpper(r.Method)
	host := r.Host
	requestURI := r.URL.RequestURI()

	for i := range s.routes {
		route := &s.routes[i]

		if route.methods != nil {
			if _, ok := route.methods[method]; !ok {
				continue
			}
		}

		if len(route.hostRegexps) > 0 && !matchesAnyHost(route.hostRegexps, host) {
			continue
		}

		if !route.pathRegexp.MatchString(requestURI) {
			continue
		}

		return route, true
	}

	return nil, false
}

func matchesAnyHost(hostRegexps []*regexp.Regexp, host string) bool {
	for _, re := range hostRegexps {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}
