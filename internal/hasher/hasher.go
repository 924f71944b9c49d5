// Package hasher turns plaintext passwords into salted one-way secrets and
// verifies candidates against them.
package hasher

import (
	"context"
	"fmt"
	"strings"

	apperrors "authsvc/internal/errors"
)

// Hasher hashes and verifies passwords. Implementations must be safe for
// concurrent use and must embed a fresh random salt in every secret.
type Hasher interface {
	// Hash returns a secret for plaintext. Two calls with the same input
	// return different secrets.
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext matches secret. A mismatch is
	// (false, nil); an unusable secret or algorithm is an error.
	Verify(ctx context.Context, plaintext, secret string) (bool, error)
}

// algorithm is a Hasher that can recognise its own secrets.
type algorithm interface {
	Hasher
	Name() string
	Owns(secret string) bool
}

// Options selects and tunes the primary algorithm.
type Options struct {
	Algorithm   string
	BcryptCost  int
	Argon2      Argon2Params
	Concurrency int
}

// New builds the configured hasher: the primary algorithm for new secrets,
// verification for every known algorithm, bounded concurrency.
func New(opts Options) (Hasher, error) {
	bc := NewBcrypt(opts.BcryptCost)
	ar := NewArgon2id(opts.Argon2)

	var primary algorithm
	switch strings.ToLower(opts.Algorithm) {
	case "", "bcrypt":
		primary = bc
	case "argon2id":
		primary = ar
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", opts.Algorithm)
	}

	return NewLimited(NewMulti(primary, bc, ar), opts.Concurrency), nil
}

// Multi hashes with one algorithm and verifies with whichever algorithm
// produced the stored secret.
type Multi struct {
	primary algorithm
	known   []algorithm
}

// NewMulti creates a Multi. primary is always part of the known set.
func NewMulti(primary algorithm, others ...algorithm) *Multi {
	known := []algorithm{primary}
	for _, a := range others {
		if a.Name() != primary.Name() {
			known = append(known, a)
		}
	}
	return &Multi{primary: primary, known: known}
}

func (m *Multi) Hash(ctx context.Context, plaintext string) (string, error) {
	return m.primary.Hash(ctx, plaintext)
}

func (m *Multi) Verify(ctx context.Context, plaintext, secret string) (bool, error) {
	for _, a := range m.known {
		if a.Owns(secret) {
			return a.Verify(ctx, plaintext, secret)
		}
	}
	return false, fmt.Errorf("unrecognised secret format: %w", apperrors.ErrCryptoFailure)
}
