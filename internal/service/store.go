package service

import (
	"context"
	"strings"
	"time"
)

// NormalizeEmail is the single email comparison policy: trimmed and
// lower-cased, applied on both write and read.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeContext bounds one store call. A non-positive timeout only adds cancellation.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
