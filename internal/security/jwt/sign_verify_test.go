package jwtutil

import (
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	Configure(Config{Secret: []byte(strings.Repeat("k", 32)), ClockSkew: time.Second})
	t.Cleanup(func() { cfg = prev })
}

func TestSignAndParse(t *testing.T) {
	testConfig(t)

	tok, jti, err := SignAccess(42, 3, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if jti == "" {
		t.Fatal("expected jti")
	}

	claims, err := ParseAccess(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, ok := claims.UserID()
	if !ok || id != 42 {
		t.Fatalf("want user 42, got %d (%v)", id, ok)
	}
	if claims.TokenVersion != 3 || claims.ID != jti {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	testConfig(t)

	tok, _, err := SignAccess(1, 1, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccess(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	testConfig(t)
	tok, _, _ := SignAccess(1, 1, time.Minute)

	Configure(Config{Secret: []byte(strings.Repeat("x", 32))})
	if _, err := ParseAccess(tok); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	testConfig(t)
	if _, err := ParseAccess("not.a.jwt"); err == nil {
		t.Fatal("expected failure")
	}
}
