package hasher

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Limited bounds how many hash computations run at once. Callers beyond the
// bound wait until a slot frees or their context ends.
type Limited struct {
	next Hasher
	sem  *semaphore.Weighted
}

// NewLimited wraps next. n <= 0 means runtime.NumCPU().
func NewLimited(next Hasher, n int) *Limited {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (l *Limited) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.next.Hash(ctx, plaintext)
}

func (l *Limited) Verify(ctx context.Context, plaintext, secret string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer l.sem.Release(1)
	return l.next.Verify(ctx, plaintext, secret)
}
