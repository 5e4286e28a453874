package ws

import (
	"errors"
	"testing"
	"time"
)

func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("s3cret", "teahouse")
	tok, exp, err := v.Issue("bridge-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("expiry too early: %v", exp)
	}
	sub, err := v.Verify(tok)
	if err != nil || sub != "bridge-1" {
		t.Fatalf("verify: %q %v", sub, err)
	}

	if _, err := v.Verify(""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty token: %v", err)
	}
	if _, err := NewTokenVerifier("other", "teahouse").Verify(tok); err == nil {
		t.Fatalf("wrong secret accepted")
	}
	if _, err := NewTokenVerifier("s3cret", "elsewhere").Verify(tok); err == nil {
		t.Fatalf("wrong issuer accepted")
	}

	expired, _, err := v.Issue("bridge-1", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}
