// Package secstore persists the auth token encrypted at rest. The store
// holds a single value in one file sealed with AES-256-GCM; the key is
// derived from a local passphrase with scrypt and a per-file random salt.
// An absent file reads as an empty token, not an error, so first launch and
// post-logout launches look identical to callers.
package secstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen = 16

	// scrypt parameters: interactive profile, per the package docs.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrCorrupt is returned when the token file exists but cannot be
// authenticated or parsed (wrong passphrase, truncation, tampering).
var ErrCorrupt = errors.New("token store corrupt or passphrase mismatch")

// Store reads and writes the single persisted auth token.
type Store struct {
	path   string
	secret []byte
}

// New constructs a Store writing to path, sealed under secret.
func New(path, secret string) *Store {
	return &Store{path: path, secret: []byte(secret)}
}

// Save encrypts token and writes it to the store file (mode 0600). The file
// layout is salt || nonce || ciphertext.
func (s *Store) Save(token string) error {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	gcm, err := s.sealer(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(token)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(token), nil)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Load decrypts and returns the persisted token. A missing file yields
// ("", nil); a file that cannot be opened and authenticated yields ErrCorrupt.
func (s *Store) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	if len(raw) < saltLen {
		return "", ErrCorrupt
	}
	salt, rest := raw[:saltLen], raw[saltLen:]
	gcm, err := s.sealer(salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", ErrCorrupt
	}
	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

// Clear removes the persisted token. Clearing an already-empty store is not
// an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// sealer derives the AES-256-GCM AEAD for the given salt.
func (s *Store) sealer(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.secret, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}
