package hasher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "authsvc/internal/errors"
	"authsvc/internal/metrics"
)

const defaultBcryptCost = 10

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Costs outside bcrypt's range fall back to 10.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Name() string { return "bcrypt" }

func (b *Bcrypt) Owns(secret string) bool {
	return strings.HasPrefix(secret, "$2a$") ||
		strings.HasPrefix(secret, "$2b$") ||
		strings.HasPrefix(secret, "$2y$")
}

func (b *Bcrypt) Hash(_ context.Context, plaintext string) (string, error) {
	defer metrics.ObserveHash(b.Name(), "hash", time.Now())

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %v: %w", err, apperrors.ErrCryptoFailure)
	}
	return string(hashed), nil
}

func (b *Bcrypt) Verify(_ context.Context, plaintext, secret string) (bool, error) {
	defer metrics.ObserveHash(b.Name(), "verify", time.Now())

	err := bcrypt.CompareHashAndPassword([]byte(secret), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %v: %w", err, apperrors.ErrCryptoFailure)
	}
}
