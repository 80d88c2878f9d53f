package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw1" {
		t.Fatalf("expected hash to differ from the password")
	}
	if !h.Verify("pw1", hash) {
		t.Fatalf("expected matching password to verify")
	}
	if h.Verify("pw2", hash) {
		t.Fatalf("expected wrong password to fail")
	}

	other, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if other == hash {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestBcryptHasherVerify_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(0)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short"} {
		if h.Verify("pw1", hash) {
			t.Fatalf("expected malformed hash %q to fail", hash)
		}
	}
}

func TestBcryptHasherHash_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	if _, err := h.Hash(strings.Repeat("p", 73)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 73-byte password, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("p", 72)); err != nil {
		t.Fatalf("expected 72-byte password to hash, got %v", err)
	}
}
