package storage

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// Vault seals and opens archives with XChaCha20-Poly1305.
// Sealed data is the 24-byte nonce followed by the ciphertext.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a Vault from a raw 32-byte key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &Vault{aead: aead}, nil
}

// OpenVault loads the key at keyFile, generating it first if the file does
// not exist.
func OpenVault(keyFile string) (*Vault, error) {
	key, err := LoadOrCreateKey(keyFile)
	if err != nil {
		return nil, err
	}
	return NewVault(key)
}

// LoadOrCreateKey returns the key stored at path. When the file does not
// exist a new random key is written with mode 0600. An existing file is never
// overwritten.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := readKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrExist) {
		// Lost the race against another process creating the key.
		return readKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create key file: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if _, err := f.WriteString(encoded); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close key file: %w", err)
	}
	return key, nil
}

// LoadKey reads an existing key without creating one.
func LoadKey(path string) ([]byte, error) {
	key, err := readKey(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault key: %w", err)
	}
	return key, nil
}

func readKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", ErrInvalidKey, path)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: %s holds %d bytes", ErrInvalidKey, path, len(key))
	}
	return key, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize(), v.aead.NonceSize()+len(plaintext)+v.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal.
func (v *Vault) Open(data []byte) ([]byte, error) {
	ns := v.aead.NonceSize()
	if len(data) < ns+v.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := v.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
