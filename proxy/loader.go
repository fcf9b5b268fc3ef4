// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// rawDocuments holds the parsed-but-not-yet-validated records from all
// four configuration files, plus the latest mtime observed across them.
type rawDocuments struct {
	Routes []Route
	Users  []User
	Roles  []Role
	Tokens []Token

	SourceMTime time.Time
}

// loadDocuments opens, stats, reads, and parses the four configuration
// files named by paths. Every opened file handle is closed before
// loadDocuments returns, on every exit path (success or failure). The
// files are read one after another; the first failure aborts the whole
// attempt, and the files after it are never opened.
func loadDocuments(paths FilePaths) (*rawDocuments, error) {
	docs := &rawDocuments{}

	mtime, err := readDocument(paths.Routes, "routes", &docs.Routes)
	if err != nil {
		return nil, err
	}
	docs.SourceMTime = mtime

	mtime, err = readDocument(paths.Users, "users", &docs.Users)
	if err != nil {
		return nil, err
	}
	docs.SourceMTime = laterOf(docs.SourceMTime, mtime)

	mtime, err = readDocument(paths.Roles, "roles", &docs.Roles)
	if err != nil {
		return nil, err
	}
	docs.SourceMTime = laterOf(docs.SourceMTime, mtime)

	mtime, err = readDocument(paths.Tokens, "tokens", &docs.Tokens)
	if err != nil {
		return nil, err
	}
	docs.SourceMTime = laterOf(docs.SourceMTime, mtime)

	return docs, nil
}

// statMTimes stats (without opening or parsing) the four files,
// returning the latest mtime across them. Used by the reloader to decide
// whether a reload attempt is worth making before paying the cost of a
// full parse.
func statMTimes(paths FilePaths) (time.Time, error) {
	var latest time.Time
	for _, path := range []string{paths.Routes, paths.Users, paths.Roles, paths.Tokens} {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, &IOError{File: path, Err: err}
		}
		latest = laterOf(latest, info.ModTime())
	}
	return latest, nil
}

// readDocument opens path, reads its contents, and decodes the sequence
// under the given top-level key into out. Returns the file's mtime on
// success. The file handle is always closed before returning.
func readDocument(path, key string, out any) (time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, &IOError{File: path, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return time.Time{}, &IOError{File: path, Err: err}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return time.Time{}, &IOError{File: path, Err: err}
	}

	if err := decodeSequence(data, key, out); err != nil {
		return time.Time{}, &ConfigError{File: path, Rule: err.Error()}
	}

	return info.ModTime(), nil
}

// decodeSequence parses data as a YAML mapping and decodes the sequence
// found under key into out. It is deliberately stricter than a plain
// yaml.Unmarshal: a missing key or a key whose value is not a sequence
// is reported precisely, rather than silently producing a nil/empty
// slice.
func decodeSequence(data []byte, key string, out any) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	if len(root.Content) == 0 {
		return fmt.Errorf("empty document, expected top-level %q key", key)
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("top-level document must be a mapping with a %q key", key)
	}

	var sequence *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			sequence = mapping.Content[i+1]
			break
		}
	}
	if sequence == nil {
		return fmt.Errorf("missing top-level %q key", key)
	}
	if sequence.Kind != yaml.SequenceNode {
		return fmt.Errorf("%q must be an ordered sequence", key)
	}

	if err := sequence.Decode(out); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}

	return nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
