package security_test

import (
	"testing"

	"github.com/Rrens/community-market/internal/security"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := security.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if hash == "correct horse" {
		t.Error("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("expected password to match, got %v", err)
	}

	if err := security.CheckPassword(hash, "wrong"); err != security.ErrPasswordMismatch {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}
