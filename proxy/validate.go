// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import "fmt"

// validate checks the shape and type rules from the data model against
// every record in docs. It does not check cross-record uniqueness or
// regex compilability — those are index-build concerns (see index.go) —
// but it does reject anything the index builder could not meaningfully
// process (empty required fields).
func validate(docs *rawDocuments) error {
	for i, route := range docs.Routes {
		if route.Path == "" {
			return &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d]: path is required", i)}
		}
		if route.Proxy.Target == "" {
			return &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d]: proxy.target is required", i)}
		}
		if route.Resource == "" {
			return &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d]: resource is required", i)}
		}
		for j, host := range route.Hosts {
			if host == "" {
				return &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d].hosts[%d]: must not be empty", i, j)}
			}
		}
		for j, method := range route.Methods {
			if method == "" {
				return &ConfigError{File: "routes", Rule: fmt.Sprintf("routes[%d].methods[%d]: must not be empty", i, j)}
			}
		}
	}

	for i, token := range docs.Tokens {
		if token.Token == "" {
			return &ConfigError{File: "tokens", Rule: fmt.Sprintf("tokens[%d]: token is required", i)}
		}
		if token.User == "" {
			return &ConfigError{File: "tokens", Rule: fmt.Sprintf("tokens[%d]: user is required", i)}
		}
	}

	for i, user := range docs.Users {
		if user.Name == "" {
			return &ConfigError{File: "users", Rule: fmt.Sprintf("users[%d]: name is required", i)}
		}
	}

	for i, role := range docs.Roles {
		if role.Name == "" {
			return &ConfigError{File: "roles", Rule: fmt.Sprintf("roles[%d]: name is required", i)}
		}
		for j, grant := range role.Grants {
			if grant.Resource == "" {
				return &ConfigError{File: "roles", Rule: fmt.Sprintf("roles[%d].grants[%d]: resource is required", i, j)}
			}
		}
	}

	return nil
}
