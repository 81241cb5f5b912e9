package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	token, expiresAt, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry %v not in the future", expiresAt)
	}

	got, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "user-1" {
		t.Fatalf("Verify() subject = %q, want user-1", got)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)
	token, _, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tampered := strings.Replace(token, token[:4], "AAAA", 1)
	if tampered == token {
		tampered = "BBBB" + token[4:]
	}
	if _, err := signer.Verify(tampered); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewSigner("secret-a", time.Hour)
	verifier, _ := NewSigner("secret-b", time.Hour)

	token, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected error verifying with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", -time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := signer.Verify(token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)
	for _, token := range []string{"", "no-dot", "a.b.c", "!!.!!"} {
		if _, err := signer.Verify(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	stored, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword(stored, "hunter2") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(stored, "hunter3") {
		t.Fatalf("wrong password accepted")
	}

	again, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if again == stored {
		t.Fatalf("expected per-password salts to differ")
	}
}
