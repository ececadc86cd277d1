package services

import (
	"context"
	"time"
)

// callWithTimeout runs fn under a child context limited to d. A non-positive
// d leaves the parent deadline as is.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

// execWithTimeout is callWithTimeout for calls without a result.
func execWithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	_, err := callWithTimeout(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
