// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import "time"

// Snapshot is an immutable, fully-indexed view of the proxy's
// configuration at one point in time. Once built, a Snapshot is never
// mutated; the Reloader swaps a *Snapshot pointer to publish a new one.
type Snapshot struct {
	routes []compiledRoute

	tokenIndex map[string]string        // token -> user name
	userIndex  map[string]User          // user name -> User
	roleIndex  map[string]Role          // role name -> Role
	grantIndex map[string]map[string]*Allow // user name -> resource -> Allow

	sourceMTime time.Time
}

// LoadAndBuild runs the full load -> validate -> index pipeline against
// the four files named by paths, returning a ready-to-serve Snapshot.
func LoadAndBuild(paths FilePaths) (*Snapshot, error) {
	docs, err := loadDocuments(paths)
	if err != nil {
		return nil, err
	}
	if err := validate(docs); err != nil {
		return nil, err
	}
	return buildSnapshot(docs)
}

// Routes returns the snapshot's compiled routes in configuration order.
func (s *Snapshot) Routes() []compiledRoute {
	return s.routes
}

// UserByToken resolves a bearer token to a user name. ok is false when
// the token is not recognized.
func (s *Snapshot) UserByToken(token string) (string, bool) {
	name, ok := s.tokenIndex[token]
	return name, ok
}

// User resolves a user name to its record. ok is false when the user is
// not recognized (e.g. a token referencing a deleted user).
func (s *Snapshot) User(name string) (User, bool) {
	user, ok := s.userIndex[name]
	return user, ok
}

// Allow reports what methods a user may use against a resource. Admin
// users are always allowed every method, regardless of the grant index.
// A non-admin user with no matching entry is reported as having no
// access (zero value, ok false).
func (s *Snapshot) Allow(userName, resource string) (Allow, bool) {
	if user, ok := s.userIndex[userName]; ok && user.Admin {
		return Allow{Wildcard: true}, true
	}
	resources, ok := s.grantIndex[userName]
	if !ok {
		return Allow{}, false
	}
	allow, ok := resources[resource]
	if !ok {
		return Allow{}, false
	}
	return *allow, true
}

// SourceMTime is the latest modification time observed across the four
// configuration files when this snapshot was built.
func (s *Snapshot) SourceMTime() time.Time {
	return s.sourceMTime
}
