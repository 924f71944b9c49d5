package hasher

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	apperrors "authsvc/internal/errors"
	"authsvc/internal/metrics"
)

const (
	argon2Prefix  = "$argon2id$"
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Argon2Params tunes argon2id. Zero fields take the defaults.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

func (p Argon2Params) withDefaults() Argon2Params {
	if p.MemoryKiB == 0 {
		p.MemoryKiB = 64 * 1024
	}
	if p.Iterations == 0 {
		p.Iterations = 1
	}
	if p.Parallelism == 0 {
		p.Parallelism = 4
	}
	return p
}

// Argon2id hashes with golang.org/x/crypto/argon2 and encodes secrets as
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>.
type Argon2id struct {
	params Argon2Params
}

// NewArgon2id creates an argon2id hasher.
func NewArgon2id(params Argon2Params) *Argon2id {
	return &Argon2id{params: params.withDefaults()}
}

func (a *Argon2id) Name() string { return "argon2id" }

func (a *Argon2id) Owns(secret string) bool {
	return strings.HasPrefix(secret, argon2Prefix)
}

func (a *Argon2id) Hash(_ context.Context, plaintext string) (string, error) {
	defer metrics.ObserveHash(a.Name(), "hash", time.Now())

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %v: %w", err, apperrors.ErrCryptoFailure)
	}

	p := a.params
	key := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.MemoryKiB, p.Parallelism, argon2KeyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

func (a *Argon2id) Verify(_ context.Context, plaintext, secret string) (bool, error) {
	defer metrics.ObserveHash(a.Name(), "verify", time.Now())

	p, salt, key, err := decodeArgon2(secret)
	if err != nil {
		return false, fmt.Errorf("argon2id: %v: %w", err, apperrors.ErrCryptoFailure)
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func decodeArgon2(secret string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(secret, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, fmt.Errorf("malformed secret")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("parse version: %v", err)
	}
	if version != argon2.Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("unsupported version %d", version)
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("parse params: %v", err)
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("zero parameter")
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode salt: %v", err)
	}
	key, err := enc.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode key")
	}
	return p, salt, key, nil
}
