package storage

import "errors"

var (
	// ErrInvalidKey is returned when the vault key has the wrong size or encoding.
	ErrInvalidKey = errors.New("invalid vault key")

	// ErrCiphertextTooShort is returned when sealed data is shorter than a nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrDecrypt is returned when sealed data fails authentication.
	ErrDecrypt = errors.New("failed to decrypt archive")
)
