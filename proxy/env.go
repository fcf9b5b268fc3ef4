// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Options bundles the runtime configuration the command-line entry
// point assembles from environment variables and flag overrides before
// constructing the Reloader, Dispatcher, and Metrics.
type Options struct {
	Paths FilePaths

	HTTPPort    int
	MetricsPort int

	ReloadInterval time.Duration

	AuthHeaders []string // lowercased, priority order
}

const (
	defaultConfigDir      = "local/config"
	defaultRoutesFile     = "routes.yaml"
	defaultUsersFile      = "users.yaml"
	defaultRolesFile      = "roles.yaml"
	defaultTokensFile     = "tokens.yaml"
	defaultHTTPPort       = 8080
	defaultMetricsPort    = 8181
	defaultReloadInterval = 15 * time.Second
	defaultAuthHeader     = "x-authorization"
)

// OptionsFromEnv reads the nine environment variables from the external
// interface contract, applying their documented defaults.
func OptionsFromEnv() Options {
	configDir := getenv("CONFIG_DIR", defaultConfigDir)

	return Options{
		Paths: FilePaths{
			Routes: filepath.Join(configDir, getenv("ROUTES_FILE", defaultRoutesFile)),
			Users:  filepath.Join(configDir, getenv("USERS_FILE", defaultUsersFile)),
			Roles:  filepath.Join(configDir, getenv("ROLES_FILE", defaultRolesFile)),
			Tokens: filepath.Join(configDir, getenv("TOKENS_FILE", defaultTokensFile)),
		},
		HTTPPort:       getenvInt("HTTP_PORT", defaultHTTPPort),
		MetricsPort:    getenvInt("METRICS_PORT", defaultMetricsPort),
		ReloadInterval: getenvReloadInterval(),
		AuthHeaders:    getenvAuthHeaders(),
	}
}

// FilePathsIn rebuilds paths using each file's base name under a new
// configDir, preserving whatever file names were already configured.
func FilePathsIn(configDir string, paths FilePaths) FilePaths {
	return FilePaths{
		Routes: filepath.Join(configDir, filepath.Base(paths.Routes)),
		Users:  filepath.Join(configDir, filepath.Base(paths.Users)),
		Roles:  filepath.Join(configDir, filepath.Base(paths.Roles)),
		Tokens: filepath.Join(configDir, filepath.Base(paths.Tokens)),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvReloadInterval() time.Duration {
	v := os.Getenv("RELOAD_INTERVAL_MS")
	if v == "" {
		return defaultReloadInterval
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return defaultReloadInterval
	}
	if ms == 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func getenvAuthHeaders() []string {
	v := os.Getenv("AUTH_HEADERS")
	if v == "" {
		return []string{defaultAuthHeader}
	}
	parts := strings.Split(v, ",")
	headers := make([]string, 0, len(parts))
	for _, part := range parts {
		header := strings.ToLower(strings.TrimSpace(part))
		if header != "" {
			headers = append(headers, header)
		}
	}
	if len(headers) == 0 {
		return []string{defaultAuthHeader}
	}
	return headers
}
