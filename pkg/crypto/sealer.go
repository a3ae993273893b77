// Package crypto seals exchange and AI credentials kept in the environment.
//
// A sealed value looks like ENC[v2]:base64(nonce|ciphertext|tag), where v2
// names the master key that sealed it.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize is the AES-256 key length.
	KeySize   = 32
	nonceSize = 12
	prefix    = "ENC[v"
)

var (
	ErrInvalidKey    = errors.New("invalid master key: must be 32 bytes")
	ErrNotSealed     = errors.New("value is not an ENC[vN]: ciphertext")
	ErrOpenFailed    = errors.New("credential could not be decrypted")
	ErrUnknownKeyVer = errors.New("master key version not loaded")
)

// Sealer encrypts credentials with one AES-256-GCM key.
type Sealer struct {
	aead    cipher.AEAD
	version int
}

// NewSealer builds a Sealer for a 32-byte key.
func NewSealer(key []byte, version int) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Sealer{aead: aead, version: version}, nil
}

// Version is the key version stamped on sealed values.
func (s *Sealer) Version() int { return s.version }

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return fmt.Sprintf("%s%d]:%s", prefix, s.version, base64.StdEncoding.EncodeToString(out)), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	_, payload, err := split(sealed)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", ErrNotSealed
	}
	plain, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}

// IsSealed reports whether v carries the ENC[vN]: prefix.
func IsSealed(v string) bool {
	_, _, err := split(v)
	return err == nil
}

// KeyVersion extracts N from ENC[vN]:, or 0 when v is not sealed.
func KeyVersion(v string) int {
	ver, _, err := split(v)
	if err != nil {
		return 0
	}
	return ver
}

func split(v string) (int, string, error) {
	if !strings.HasPrefix(v, prefix) {
		return 0, "", ErrNotSealed
	}
	head, payload, ok := strings.Cut(v[len(prefix):], "]:")
	if !ok {
		return 0, "", ErrNotSealed
	}
	var ver int
	if _, err := fmt.Sscanf(head, "%d", &ver); err != nil || ver <= 0 {
		return 0, "", ErrNotSealed
	}
	return ver, payload, nil
}
