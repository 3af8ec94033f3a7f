package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies secrets.
// Hash is salted, so two calls with the same secret differ.
type PasswordHasher interface {
	Hash(secret string) ([]byte, error)
	Compare(secret string, digest []byte) bool
}

type bcryptHasher struct {
	cost int
}

// HasherOption configures NewBcryptHasher.
type HasherOption func(*bcryptHasher)

// WithBcryptCost sets the bcrypt work factor. Out-of-range values are ignored.
func WithBcryptCost(cost int) HasherOption {
	return func(h *bcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher returns a PasswordHasher backed by bcrypt with cost 10.
func NewBcryptHasher(opts ...HasherOption) PasswordHasher {
	h := &bcryptHasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *bcryptHasher) Hash(secret string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return digest, nil
}

// Compare returns false for malformed digests instead of failing.
func (h *bcryptHasher) Compare(secret string, digest []byte) bool {
	if len(digest) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(digest, []byte(secret)) == nil
}
