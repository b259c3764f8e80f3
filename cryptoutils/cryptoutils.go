// Package cryptoutils provides utility functions for cryptographic operations,
// including password hashing, key derivation, random generation and the
// AES-256-CTR block codec used by every encrypted vault file.
package cryptoutils

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/fault"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// HashPassword computes the verification hash SHA3-512(password || salt).
func HashPassword(password []byte, salt []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, fault.ErrEmptyPassword
	}
	if len(salt) != constants.SegmentSize {
		return nil, fmt.Errorf("invalid salt length %d", len(salt))
	}

	h := sha3.New512()
	h.Write(password)
	h.Write(salt)
	return h.Sum(nil), nil
}

// VerifyPassword recomputes the verification hash and compares it with the
// stored one in constant time.
func VerifyPassword(password []byte, salt []byte, expected []byte) (bool, error) {
	hash, err := HashPassword(password, salt)
	if err != nil {
		return false, err
	}
	defer ZeroBytes(hash)
	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}

// DeriveKEK uses PBKDF2-HMAC-SHA512 to derive the key-encryption-key
// from a password and salt.
func DeriveKEK(password []byte, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, fault.ErrEmptyPassword
	}

	if len(salt) != constants.SegmentSize {
		return nil, fmt.Errorf("invalid salt length %d", len(salt))
	}

	if iterations <= 0 {
		return nil, fmt.Errorf("pbkdf2 iterations must be positive, got %d", iterations)
	}

	return pbkdf2.Key(password, salt, iterations, constants.KeySize, sha512.New), nil
}

// GenerateRandomBytes returns n bytes from the system's secure random source.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrRandomSource, err)
	}
	return b, nil
}

// ZeroBytes overwrites the given byte slice with zeros.
// This is used to securely wipe sensitive data from memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
