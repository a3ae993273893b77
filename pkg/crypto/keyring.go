package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

const envKeyPrefix = "MASTER_ENCRYPTION_KEY"

// Keyring holds every configured master key version. Sealing uses the
// newest; opening picks the version stamped on the value.
type Keyring struct {
	current int
	sealers map[int]*Sealer
}

// LoadKeyring reads MASTER_ENCRYPTION_KEY (v1, required) and optional
// MASTER_ENCRYPTION_KEY_V2 .. _V10, each base64 of 32 bytes.
func LoadKeyring() (*Keyring, error) {
	kr := &Keyring{sealers: make(map[int]*Sealer)}
	if err := kr.load(1, envKeyPrefix); err != nil {
		return nil, fmt.Errorf("load primary key: %w", err)
	}
	for v := 2; v <= 10; v++ {
		name := fmt.Sprintf("%s_V%d", envKeyPrefix, v)
		if os.Getenv(name) == "" {
			continue
		}
		if err := kr.load(v, name); err != nil {
			return nil, err
		}
	}
	return kr, nil
}

func (kr *Keyring) load(version int, envName string) error {
	raw := os.Getenv(envName)
	if raw == "" {
		return fmt.Errorf("%s not set", envName)
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", envName, err)
	}
	s, err := NewSealer(key, version)
	if err != nil {
		return fmt.Errorf("%s: %w", envName, err)
	}
	kr.sealers[version] = s
	if version > kr.current {
		kr.current = version
	}
	return nil
}

// CurrentVersion is the version new values are sealed with.
func (kr *Keyring) CurrentVersion() int { return kr.current }

// Seal encrypts with the newest key.
func (kr *Keyring) Seal(plaintext string) (string, error) {
	return kr.sealers[kr.current].Seal(plaintext)
}

// Reveal opens a sealed value and passes anything else through unchanged,
// so a .env may mix sealed and plain credentials.
func (kr *Keyring) Reveal(v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	s, ok := kr.sealers[KeyVersion(v)]
	if !ok {
		return "", fmt.Errorf("%w: v%d", ErrUnknownKeyVer, KeyVersion(v))
	}
	return s.Open(v)
}

// GenerateKey returns a random base64 master key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
