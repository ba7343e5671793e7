package util

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" || hash == "s3cret-pass" {
		t.Fatalf("expected an opaque hash, got %q", hash)
	}
	if !VerifyPassword("s3cret-pass", hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if VerifyPassword("wrong-pass", hash) {
		t.Fatalf("expected password verification to fail for wrong password")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to yield distinct hashes")
	}
}

func TestHashPasswordRejectsInput(t *testing.T) {
	if _, err := HashPassword("", bcrypt.MinCost); !errors.Is(err, ErrPasswordEmpty) {
		t.Fatalf("expected ErrPasswordEmpty, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := HashPassword("secret", bcrypt.MaxCost+1); err == nil {
		t.Fatalf("expected error for out of range cost")
	}
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	if VerifyPassword("secret", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
	if VerifyPassword("", "$2a$04$abcdefghijklmnopqrstuu") {
		t.Fatalf("empty password must not verify")
	}
	if VerifyPassword("secret", "") {
		t.Fatalf("empty hash must not verify")
	}
}
