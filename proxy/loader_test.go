// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func testPaths(t *testing.T) (FilePaths, string) {
	t.Helper()
	dir := t.TempDir()
	paths := FilePaths{
		Routes: writeFile(t, dir, "routes.yaml", `routes:
  - path: "^/api/.*"
    methods: [GET, POST]
    proxy:
      target: "http://upstream.internal:9000"
    resource: api
`),
		Users: writeFile(t, dir, "users.yaml", `users:
  - name: alice
    roles: [reader]
`),
		Roles: writeFile(t, dir, "roles.yaml", `roles:
  - name: reader
    grants:
      - resource: api
        methods: [GET]
`),
		Tokens: writeFile(t, dir, "tokens.yaml", `tokens:
  - token: tok-alice
    user: alice
`),
	}
	return paths, dir
}

func TestLoadDocuments(t *testing.T) {
	paths, _ := testPaths(t)

	docs, err := loadDocuments(paths)
	if err != nil {
		t.Fatalf("loadDocuments: %v", err)
	}

	if len(docs.Routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(docs.Routes))
	}
	if docs.Routes[0].Resource != "api" {
		t.Errorf("resource = %q, want %q", docs.Routes[0].Resource, "api")
	}
	if len(docs.Users) != 1 || docs.Users[0].Name != "alice" {
		t.Errorf("users = %+v, want one user named alice", docs.Users)
	}
	if len(docs.Roles) != 1 || docs.Roles[0].Name != "reader" {
		t.Errorf("roles = %+v, want one role named reader", docs.Roles)
	}
	if len(docs.Tokens) != 1 || docs.Tokens[0].Token != "tok-alice" {
		t.Errorf("tokens = %+v, want one token tok-alice", docs.Tokens)
	}
	if docs.SourceMTime.IsZero() {
		t.Error("SourceMTime not set")
	}
}

func TestLoadDocuments_missingFile(t *testing.T) {
	paths, _ := testPaths(t)
	paths.Routes = filepath.Join(t.TempDir(), "does-not-exist.yaml")

	_, err := loadDocuments(paths)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var ioErr *IOError
	if !asIOError(err, &ioErr) {
		t.Errorf("error = %v, want *IOError", err)
	}
}

func TestLoadDocuments_missingKey(t *testing.T) {
	paths, dir := testPaths(t)
	paths.Routes = writeFile(t, dir, "routes.yaml", `not_routes: []`)

	_, err := loadDocuments(paths)
	if err == nil {
		t.Fatal("expected error for missing top-level key")
	}
	var cfgErr *ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestLoadDocuments_wrongKind(t *testing.T) {
	paths, dir := testPaths(t)
	paths.Routes = writeFile(t, dir, "routes.yaml", `routes: "not a sequence"`)

	_, err := loadDocuments(paths)
	if err == nil {
		t.Fatal("expected error for wrong-kind value")
	}
}

func TestStatMTimes(t *testing.T) {
	paths, _ := testPaths(t)

	mtime, err := statMTimes(paths)
	if err != nil {
		t.Fatalf("statMTimes: %v", err)
	}
	if mtime.IsZero() {
		t.Error("statMTimes returned zero time")
	}
}

func TestLaterOf(t *testing.T) {
	earlier := time.Unix(100, 0)
	later := time.Unix(200, 0)

	if got := laterOf(earlier, later); !got.Equal(later) {
		t.Errorf("laterOf(earlier, later) = %v, want %v", got, later)
	}
	if got := laterOf(later, earlier); !got.Equal(later) {
		t.Errorf("laterOf(later, earlier) = %v, want %v", got, later)
	}
}

func asIOError(err error, target **IOError) bool {
	e, ok := err.(*IOError)
	if ok {
		*target = e
	}
	return ok
}

func asConfigError(err error, target **ConfigError) bool {
	e, ok := err.(*ConfigError)
	if ok {
		*target = e
	}
	return ok
}
