package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskboard/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging through the context logger
//
// Use this instead of bare `go func()` to prevent goroutine leaks and crashes.
// Pass context.WithoutCancel(r.Context()) for work that must outlive the request.
//
// Example:
//
//	SafeGo(ctx, 2*time.Second, "list cache invalidation", func(ctx context.Context) error {
//	    return cache.Publish(ctx)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	logger := observability.FromContext(parentCtx).WithField("task", taskName)
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil {
			// Logged, not propagated; the caller decided this work is best effort
			logger.WithError(err).Warn("background task failed")
		}
	}()
}

// Batch processes items with at most workers concurrent calls, each bounded by
// timeout, and returns every error encountered. A panicking item is reported
// as an error. Items not yet started when ctx is cancelled report ctx.Err().
//
// Example:
//
//	errs := Batch(ctx, accounts, 4, "seed users", 10*time.Second, func(ctx context.Context, a Account) error {
//	    return seed(ctx, a)
//	})
func Batch[T any](ctx context.Context, items []T, workers int, taskName string, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	if workers <= 0 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	// errgroup's context is not used: one failing item must not cancel the rest
	var g errgroup.Group
	g.SetLimit(workers)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			collect(fmt.Errorf("%s: %w", taskName, err))
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					collect(fmt.Errorf("%s: %w", taskName, observability.MustRecover(r)))
				}
			}()

			itemCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := fn(itemCtx, item); err != nil {
				collect(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs
}
