// Copyright 2026 The Gatekeeper Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import "testing"

func TestBuildSnapshot(t *testing.T) {
	docs := &rawDocuments{
		Routes: []Route{
			{Path: "^/api/.*", Methods: []string{"get"}, Proxy: ProxyTarget{Target: "http://upstream:9000"}, Resource: "api"},
		},
		Users: []User{
			{Name: "alice", Roles: []string{"reader"}},
			{Name: "root", Admin: true},
		},
		Roles: []Role{
			{Name: "reader", Grants: []Grant{{Resource: "api", Methods: []string{"GET"}}}},
		},
		Tokens: []Token{
			{Token: "tok-alice", User: "alice"},
		},
	}

	snapshot, err := buildSnapshot(docs)
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}

	if len(snapshot.Routes()) != 1 {
		t.Fatalf("routes = %d, want 1", len(snapshot.Routes()))
	}

	name, ok := snapshot.UserByToken("tok-alice")
	if !ok || name != "alice" {
		t.Errorf("UserByToken(tok-alice) = (%q, %v), want (alice, true)", name, ok)
	}

	if _, ok := snapshot.UserByToken("unknown"); ok {
		t.Error("UserByToken(unknown) = true, want false")
	}

	allow, ok := snapshot.Allow("alice", "api")
	if !ok {
		t.Fatal("Allow(alice, api) not found")
	}
	if allow.Wildcard {
		t.Error("alice's grant should not be wildcard")
	}
	if _, ok := allow.Methods["GET"]; !ok {
		t.Error("alice should be allowed GET on api")
	}
	if _, ok := allow.Methods["POST"]; ok {
		t.Error("alice should not be allowed POST on api")
	}

	adminAllow, ok := snapshot.Allow("root", "anything")
	if !ok || !adminAllow.Wildcard {
		t.Errorf("Allow(root, anything) = (%+v, %v), want wildcard true", adminAllow, ok)
	}

	if _, ok := snapshot.Allow("alice", "unknown-resource"); ok {
		t.Error("Allow(alice, unknown-resource) should not be found")
	}
}

func TestBuildIndex_duplicateToken(t *testing.T) {
	docs := validDocs()
	docs.Tokens = append(docs.Tokens, Token{Token: "tok-alice", User: "alice"})

	_, err := buildSnapshot(docs)
	if err == nil {
		t.Fatal("expected ConfigError for duplicate token")
	}
}

func TestBuildIndex_duplicateUser(t *testing.T) {
	docs := validDocs()
	docs.Users = append(docs.Users, User{Name: "alice"})

	_, err := buildSnapshot(docs)
	if err == nil {
		t.Fatal("expected ConfigError for duplicate user")
	}
}

func TestBuildIndex_duplicateRole(t *testing.T) {
	docs := validDocs()
	docs.Roles = append(docs.Roles, Role{Name: "reader", Grants: []Grant{{Resource: "api"}}})

	_, err := buildSnapshot(docs)
	if err == nil {
		t.Fatal("expected ConfigError for duplicate role")
	}
}

func TestBuildIndex_badRegex(t *testing.T) {
	docs := validDocs()
	docs.Routes[0].Path = "(unclosed"

	_, err := buildSnapshot(docs)
	if err == nil {
		t.Fatal("expected ConfigError for invalid path regex")
	}
}

func TestBuildIndex_badHostRegex(t *testing.T) {
	docs := validDocs()
	docs.Routes[0].Hosts = []string{"(unclosed"}

	_, err := buildSnapshot(docs)
	if err == nil {
		t.Fatal("expected ConfigError for invalid host regex")
	}
}

func TestGrantIndex_unknownRoleIgnored(t *testing.T) {
	docs := &rawDocuments{
		Users: []User{{Name: "bob", Roles: []string{"ghost"}}},
	}

	grantIndex := buildGrantIndex(indexUsers(docs.Users), map[string]Role{})
	if _, ok := grantIndex["bob"]; ok {
		t.Error("bob should have no grants from an unknown role")
	}
}

func indexUsers(users []User) map[string]User {
	index := make(map[string]User, len(users))
	for _, u := range users {
		index[u.Name] = u
	}
	return index
}

func TestGrantIndex_wildcardAndMethodCoexist(t *testing.T) {
	userIndex := map[string]User{
		"carol": {Name: "carol", Roles: []string{"a", "b"}},
	}
	roleIndex := map[string]Role{
		"a": {Name: "a", Grants: []Grant{{Resource: "api", Methods: []string{"GET"}}}},
		"b": {Name: "b", Grants: []Grant{{Resource: "api"}}}, // wildcard
	}

	grantIndex := buildGrantIndex(userIndex, roleIndex)
	allow := grantIndex["carol"]["api"]
	if allow == nil {
		t.Fatal("expected a grant for carol/api")
	}
	if !allow.Wildcard {
		t.Error("wildcard grant should win when combined with a specific method")
	}
	if _, ok := allow.Methods["GET"]; !ok {
		t.Error("specific method grant should still be recorded")
	}
}

func TestGrantIndex_skipsAdmin(t *testing.T) {
	userIndex := map[string]User{
		"root": {Name: "root", Admin: true, Roles: []string{"reader"}},
	}
	roleIndex := map[string]Role{
		"reader": {Name: "reader", Grants: []Grant{{Resource: "api", Methods: []string{"GET"}}}},
	}

	grantIndex := buildGrantIndex(userIndex, roleIndex)
	if _, ok := grantIndex["root"]; ok {
		t.Error("admin users should not appear in the grant index")
	}
}
