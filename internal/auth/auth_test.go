package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	j := NewJWT("secret", time.Hour, []string{"admin", "user"})
	tok, err := j.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	user, err := j.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if user != "admin" {
		t.Fatalf("user = %q; want admin", user)
	}
}

func TestIssueUnknownUser(t *testing.T) {
	j := NewJWT("secret", time.Hour, []string{"admin"})
	if _, err := j.Issue("mallory"); err != ErrUnknownUser {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	j := NewJWT("secret", time.Hour, nil)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := j.Verify(tok); err != ErrInvalidToken {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := NewJWT("secret", -time.Minute, nil)
	tok, err := j.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := j.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewJWT("secret-a", time.Hour, nil)
	verifier := NewJWT("secret-b", time.Hour, nil)
	tok, _ := issuer.Issue("admin")
	if _, err := verifier.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}
