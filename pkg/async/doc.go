// Package async provides safe concurrent execution primitives for background tasks.
//
// SafeGo runs best-effort work in a goroutine with panic recovery, a timeout
// and error logging:
//
//	async.SafeGo(context.WithoutCancel(ctx), 2*time.Second, "publish invalidation", func(ctx context.Context) error {
//		return notifier.Publish(ctx)
//	})
//
// Batch processes a slice with bounded concurrency and collects every error:
//
//	errs := async.Batch(ctx, accounts, 4, "seed users", 10*time.Second, seedOne)
package async
