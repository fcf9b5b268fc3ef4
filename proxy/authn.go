// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import "net/http"

// Authenticate resolves the caller's user name from the first of
// headerNames (already lowercased by the caller) present on r. "Present"
// is checked against the raw header map, not http.Header.Get: a header
// that is present but carries an empty value short-circuits the search
// as unauthenticated — later header names in the list are never
// consulted. This matters because a reverse-proxy deployment may have an
// upstream or load balancer that sets an auth header to empty rather
// than omitting it.
func Authenticate(s *Snapshot, headerNames []string, header http.Header) (user string, authenticated bool) {
	for _, name := range headerNames {
		values, present := header[http.CanonicalHeaderKey(name)]
		if !present {
			continue
		}
		if len(values) == 0 || values[0] == "" {
			return "", false
		}
		userName, ok := s.UserByToken(values[0])
		if !ok {
			return "", false
		}
		return userName, true
	}
	return "", false
}
