package crypto

import (
	"bytes"
	"testing"
)

func TestNewSalt_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	a, err := NewSalt(SaltLen)
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if len(a) != SaltLen {
		t.Fatalf("len=%d, want=%d", len(a), SaltLen)
	}
	b, err := NewSalt(SaltLen)
	if err != nil {
		t.Fatalf("NewSalt(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent salts are equal — looks non-random")
	}
}

func TestHashPassword_DeterministicOnSameInput(t *testing.T) {
	t.Parallel()

	pw := []byte("p@ssw0rd")
	salt := []byte("NaCl-16-bytes?")

	h1 := HashPassword(pw, salt)
	h2 := HashPassword(pw, salt)

	if len(h1) == 0 || !bytes.Equal(h1, h2) {
		t.Fatalf("hash not deterministic for same input")
	}

	if bytes.Equal(h1, HashPassword(pw, []byte("another-salt----"))) {
		t.Fatalf("hash should differ when salt differs")
	}
	if bytes.Equal(h1, HashPassword([]byte("p@ssw0rd!"), salt)) {
		t.Fatalf("hash should differ when password differs")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	pw := []byte("correct horse battery staple")
	salt := []byte("salty-salt-123456")

	hash := HashPassword(pw, salt)

	if !VerifyPassword(pw, salt, hash) {
		t.Fatalf("VerifyPassword: expected true for correct password")
	}
	if VerifyPassword([]byte("wrong"), salt, hash) {
		t.Fatalf("VerifyPassword: expected false for wrong password")
	}
	if VerifyPassword(pw, []byte("wrong-salt"), hash) {
		t.Fatalf("VerifyPassword: expected false for wrong salt")
	}
}
