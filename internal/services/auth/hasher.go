package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxSecretBytes is the longest input bcrypt accepts
const MaxSecretBytes = 72

// ErrSecretTooLong is returned when a secret cannot be hashed without truncation
var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Hasher turns secrets into one-way salted hashes
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// BcryptHasher is a Hasher backed by bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost (0 means bcrypt.DefaultCost)
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of secret
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if len(secret) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash
func (h *BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
