package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/log"
)

const (
	conflictRetries = 3
	conflictBackoff = 25 * time.Millisecond
)

// withConflictRetry re-runs fn while it loses optimistic-concurrency races,
// with bounded backoff. Any other error is surfaced unchanged; callers must
// not retry authorization or transition failures.
func withConflictRetry[T any](ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(time.Duration(attempt) * conflictBackoff):
			}

			log.Debug(ctx, "retrying after concurrent modification",
				log.String("operation", op),
				log.Int("attempt", attempt),
			)
		}

		result, err = fn(ctx)
		if !errors.Is(err, entity.ErrConcurrentModification) {
			return result, err
		}
	}

	return result, fmt.Errorf("%w: %s: %w", ErrConflictRetries, op, err)
}
