package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

func testKey(fill byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = fill + byte(i)
	}
	return key
}

func TestSealOpen(t *testing.T) {
	s, err := NewSealer(testKey(0), 1)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"okx_key", "8f1c1d0e-0f55-4b7a-9d1f-7b0e1f2a3b4c"},
		{"passphrase", "correct horse battery staple"},
		{"unicode", "密钥 🔐"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.Seal(tt.plaintext)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if KeyVersion(sealed) != 1 {
				t.Fatalf("sealed value %q missing version", sealed)
			}
			got, err := s.Open(sealed)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if got != tt.plaintext {
				t.Fatalf("got %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	s, _ := NewSealer(testKey(0), 1)
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Fatal("expected different ciphertexts for the same plaintext")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s, _ := NewSealer(testKey(0), 1)
	for _, v := range []string{"", "plain", "ENC[v1]:", "ENC[v1]:!!!", "ENC[vX]:abcd"} {
		if _, err := s.Open(v); err == nil {
			t.Errorf("expected error for %q", v)
		}
	}
	other, _ := NewSealer(testKey(9), 1)
	sealed, _ := other.Seal("secret")
	if _, err := s.Open(sealed); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("wrong key: got %v", err)
	}
}

func TestKeyringRevealAcrossVersions(t *testing.T) {
	t.Setenv("MASTER_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(testKey(0)))
	old, _ := NewSealer(testKey(0), 1)
	sealedV1, _ := old.Seal("v1-secret")

	t.Setenv("MASTER_ENCRYPTION_KEY_V2", base64.StdEncoding.EncodeToString(testKey(7)))
	kr, err := LoadKeyring()
	if err != nil {
		t.Fatalf("LoadKeyring: %v", err)
	}
	if kr.CurrentVersion() != 2 {
		t.Fatalf("current version = %d, want 2", kr.CurrentVersion())
	}

	got, err := kr.Reveal(sealedV1)
	if err != nil || got != "v1-secret" {
		t.Fatalf("Reveal v1: %q %v", got, err)
	}

	sealedV2, _ := kr.Seal("v2-secret")
	if KeyVersion(sealedV2) != 2 {
		t.Fatalf("new values must use v2: %s", sealedV2)
	}
	if got, _ := kr.Reveal(sealedV2); got != "v2-secret" {
		t.Fatalf("Reveal v2: %q", got)
	}

	if got, err := kr.Reveal("plain-value"); err != nil || got != "plain-value" {
		t.Fatalf("plain values pass through: %q %v", got, err)
	}
	if _, err := kr.Reveal("ENC[v5]:AAAA"); !errors.Is(err, ErrUnknownKeyVer) {
		t.Fatalf("unknown version: %v", err)
	}
}

func TestLoadKeyringRequiresPrimary(t *testing.T) {
	t.Setenv("MASTER_ENCRYPTION_KEY", "")
	if _, err := LoadKeyring(); err == nil {
		t.Fatal("expected error without primary key")
	}
	t.Setenv("MASTER_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadKeyring(); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("short key: %v", err)
	}
}
