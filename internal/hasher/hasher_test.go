package hasher

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "authsvc/internal/errors"
)

var fastArgon2 = Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

func testAlgorithms() []algorithm {
	return []algorithm{NewBcrypt(bcrypt.MinCost), NewArgon2id(fastArgon2)}
}

func TestHasher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, h := range testAlgorithms() {
		t.Run(h.Name(), func(t *testing.T) {
			for _, p := range []string{"secret1", "", "päss wörd ✓", strings.Repeat("x", 64)} {
				secret, err := h.Hash(ctx, p)
				require.NoError(t, err)
				assert.NotEqual(t, p, secret)
				assert.True(t, h.Owns(secret))

				ok, err := h.Verify(ctx, p, secret)
				require.NoError(t, err)
				assert.True(t, ok, "plaintext %q should verify", p)
			}
		})
	}
}

func TestHasher_WrongPasswordDoesNotVerify(t *testing.T) {
	ctx := context.Background()
	for _, h := range testAlgorithms() {
		t.Run(h.Name(), func(t *testing.T) {
			secret, err := h.Hash(ctx, "secret1")
			require.NoError(t, err)

			for _, candidate := range []string{"wrong", "secret2", "Secret1", "secret1 ", ""} {
				ok, err := h.Verify(ctx, candidate, secret)
				require.NoError(t, err)
				assert.False(t, ok, "candidate %q must not verify", candidate)
			}
		})
	}
}

func TestHasher_SaltIsRandom(t *testing.T) {
	ctx := context.Background()
	for _, h := range testAlgorithms() {
		t.Run(h.Name(), func(t *testing.T) {
			a, err := h.Hash(ctx, "secret1")
			require.NoError(t, err)
			b, err := h.Hash(ctx, "secret1")
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
		})
	}
}

func TestHasher_ConcurrentHashesAreDistinct(t *testing.T) {
	h := NewArgon2id(fastArgon2)
	const n = 16

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		secrets = make(map[string]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := h.Hash(context.Background(), "same")
			assert.NoError(t, err)
			mu.Lock()
			secrets[s] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, secrets, n)
}

func TestBcrypt_PasswordTooLong(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Hash(context.Background(), strings.Repeat("a", 73))
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooLong)
}

func TestBcrypt_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, defaultBcryptCost, NewBcrypt(0).cost)
	assert.Equal(t, defaultBcryptCost, NewBcrypt(99).cost)
}

func TestVerify_MalformedSecretIsCryptoFailure(t *testing.T) {
	ctx := context.Background()

	_, err := NewBcrypt(bcrypt.MinCost).Verify(ctx, "x", "$2a$garbage")
	assert.ErrorIs(t, err, apperrors.ErrCryptoFailure)

	for _, secret := range []string{
		"$argon2id$v=19$m=1024,t=1,p=1$!!$!!",
		"$argon2id$v=18$m=1024,t=1,p=1$YWJj$YWJj",
		"$argon2id$v=19$m=0,t=1,p=1$YWJj$YWJj",
		"$argon2id$v=19",
	} {
		_, err := NewArgon2id(fastArgon2).Verify(ctx, "x", secret)
		assert.ErrorIs(t, err, apperrors.ErrCryptoFailure, secret)
	}
}

func TestMulti_VerifiesEitherAlgorithm(t *testing.T) {
	ctx := context.Background()
	bc := NewBcrypt(bcrypt.MinCost)
	ar := NewArgon2id(fastArgon2)

	legacy, err := bc.Hash(ctx, "secret1")
	require.NoError(t, err)

	m := NewMulti(ar, bc, ar)
	fresh, err := m.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.True(t, ar.Owns(fresh))

	for _, secret := range []string{legacy, fresh} {
		ok, err := m.Verify(ctx, "secret1", secret)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	_, err = m.Verify(ctx, "secret1", "plaintext-in-db")
	assert.ErrorIs(t, err, apperrors.ErrCryptoFailure)
}

func TestNew(t *testing.T) {
	h, err := New(Options{Algorithm: "argon2id", Argon2: fastArgon2, Concurrency: 2})
	require.NoError(t, err)

	secret, err := h.Hash(context.Background(), "secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, argon2Prefix))

	_, err = New(Options{Algorithm: "md5"})
	assert.Error(t, err)
}

// blockingHasher holds every call until release is closed.
type blockingHasher struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingHasher) Hash(ctx context.Context, _ string) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return "h", nil
}

func (b *blockingHasher) Verify(ctx context.Context, _, _ string) (bool, error) {
	b.entered <- struct{}{}
	<-b.release
	return true, nil
}

func TestLimited_BoundsConcurrencyAndHonoursContext(t *testing.T) {
	inner := &blockingHasher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	l := NewLimited(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = l.Hash(context.Background(), "a")
	}()
	<-inner.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Verify(ctx, "b", "h")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(inner.release)
	<-done
}
