// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// compiledRoute is a Route with its regexes precompiled and its upstream
// URL preparsed, so the hot request path never compiles a pattern or
// parses a URL.
type compiledRoute struct {
	source Route

	pathRegexp   *regexp.Regexp
	hostRegexps  []*regexp.Regexp // nil/empty means any host matches
	methods      map[string]struct{} // nil means any method matches
	target       *url.URL
	resource     string
	anonymous    bool
	stripHeaders map[string]struct{} // lowercased header names
}

// Allow is the tagged grant value for one (user, resource) pair. Wildcard
// is tested before Methods, per the authorizer algorithm.
type Allow struct {
	Wildcard bool
	Methods  map[string]struct{}
}

// buildSnapshot folds validated documents into the four derived indices
// and the compiled route list, returning a single immutable Snapshot.
// Duplicate-key detection (tokens, users, roles) and regex/URL
// compilation happen here; any failure aborts before a Snapshot is
// constructed, so partial indices are never observable.
func buildSnapshot(docs *rawDocuments) (*Snapshot, error) {
	routes, err := compileRoutes(docs.Routes)
	if err != nil {
		return nil, err
	}

	tokenIndex, err := buildTokenIndex(docs.Tokens)
	if err != nil {
		return nil, err
	}

	userIndex, err := buildUserIndex(docs.Users)
	if err != nil {
		return nil, err
	}

	roleIndex, err := buildRoleIndex(docs.Roles)
	if err != nil {
		return nil, err
	}

	grantIndex := buildGrantIndex(userIndex, roleIndex)

	return &Snapshot{
		routes:      routes,
		tokenIndex:  tokenIndex,
		userIndex:   userIndex,
		roleIndex:   roleIndex,
		grantIndex:  grantIndex,
		sourceMTime: docs.SourceMTime,
	}, nil
}

func compileRoutes(raw []Route) ([]compiledRoute, error) {
	routes := make([]compiledRoute, 0, len(raw))
	for i, route := range raw {
		pathRegexp, err := regexp.Compile(route.Path)
		if err != nil {
			return nil, &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d].path: invalid regex", i), Err: err}
		}

		var hostRegexps []*regexp.Regexp
		for j, host := range route.Hosts {
			hostRegexp, err := regexp.Compile(host)
			if err != nil {
				return nil, &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d].hosts[%d]: invalid regex", i, j), Err: err}
			}
			hostRegexps = append(hostRegexps, hostRegexp)
		}

		target, err := url.Parse(route.Proxy.Target)
		if err != nil {
			return nil, &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d].proxy.target: invalid URL", i), Err: err}
		}

		var methods map[string]struct{}
		if len(route.Methods) > 0 {
			methods = make(map[string]struct{}, len(route.Methods))
			for _, method := range route.Methods {
				methods[strings.ToUpper(method)] = struct{}{}
			}
		}

		var stripHeaders map[string]struct{}
		if len(route.StripHeaders) > 0 {
			stripHeaders = make(map[string]struct{}, len(route.StripHeaders))
			for _, header := range route.StripHeaders {
				stripHeaders[strings.ToLower(header)] = struct{}{}
			}
		}

		routes = append(routes, compiledRoute{
			source:       route,
			pathRegexp:   pathRegexp,
			hostRegexps:  hostRegexps,
			methods:      methods,
			target:       target,
			resource:     route.Resource,
			anonymous:    route.Anonymous,
			stripHeaders: stripHeaders,
		})
	}
	return routes, nil
}

func buildTokenIndex(tokens []Token) (map[string]string, error) {
	index := make(map[string]string, len(tokens))
	for _, token := range tokens {
		if _, exists := index[token.Token]; exists {
			return nil, &ConfigError{File: "tokens", Rule: fmt.Sprintf("duplicate token %q", token.Token)}
		}
		index[token.Token] = token.User
	}
	return index, nil
}

func buildUserIndex(users []User) (map[string]User, error) {
	index := make(map[string]User, len(users))
	for _, user := range users {
		if _, exists := index[user.Name]; exists {
			return nil, &ConfigError{File: "users", Rule: fmt.Sprintf("duplicate user name %q", user.Name)}
		}
		index[user.Name] = user
	}
	return index, nil
}

func buildRoleIndex(roles []Role) (map[string]Role, error) {
	index := make(map[string]Role, len(roles))
	for _, role := range roles {
		if _, exists := index[role.Name]; exists {
			return nil, &ConfigError{File: "roles", Rule: fmt.Sprintf("duplicate role name %q", role.Name)}
		}
		index[role.Name] = role
	}
	return index, nil
}

// buildGrantIndex folds each non-admin user's roles into a per-user,
// per-resource Allow. A role name with no matching entry in roleIndex
// contributes no grants (invariant: unknown roles are silently ignored).
// Duplicate grants for the same (resource, method) are idempotent by
// construction, since Allow.Methods is a set.
func buildGrantIndex(userIndex map[string]User, roleIndex map[string]Role) map[string]map[string]*Allow {
	grantIndex := make(map[string]map[string]*Allow)

	for name, user := range userIndex {
		if user.Admin {
			continue
		}

		var resources map[string]*Allow
		for _, roleName := range user.Roles {
			role, ok := roleIndex[roleName]
			if !ok {
				continue
			}
			for _, grant := range role.Grants {
				if resources == nil {
					resources = make(map[string]*Allow)
				}
				allow, ok := resources[grant.Resource]
				if !ok {
					allow = &Allow{Methods: make(map[string]struct{})}
					resources[grant.Resource] = allow
				}
				if len(grant.Methods) == 0 {
					allow.Wildcard = true
					continue
				}
				for _, method := range grant.Methods {
					allow.Methods[strings.ToUpper(method)] = struct{}{}
				}
			}
		}

		if resources != nil {
			grantIndex[name] = resources
		}
	}

	return grantIndex
}
