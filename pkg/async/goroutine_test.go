package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestSafeGo_Success(t *testing.T) {
	done := make(chan struct{})

	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	waitFor(t, done)
}

func TestSafeGo_WithError(t *testing.T) {
	done := make(chan struct{})

	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		defer close(done)
		return errors.New("test error")
	})

	// Error is logged, not raised
	waitFor(t, done)
}

func TestSafeGo_Timeout(t *testing.T) {
	result := make(chan error, 1)

	SafeGo(context.Background(), 50*time.Millisecond, "test task", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			result <- nil
		case <-ctx.Done():
			result <- ctx.Err()
		}
		return nil
	})

	select {
	case err := <-result:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	done := make(chan struct{})

	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		defer close(done)
		panic("test panic")
	})

	waitFor(t, done)
	// Reaching this point means the process survived the panic
}

func TestSafeGo_OutlivesCancelledParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	result := make(chan error, 1)
	SafeGo(context.WithoutCancel(parent), time.Second, "test task", func(ctx context.Context) error {
		result <- ctx.Err()
		return nil
	})

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("detached context should not be cancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestBatch(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	executed := atomic.Int32{}

	errs := Batch(context.Background(), items, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		executed.Add(1)
		return nil
	})

	if len(errs) > 0 {
		t.Errorf("Expected no errors, got %d", len(errs))
	}
	if executed.Load() != 5 {
		t.Errorf("Expected 5 executions, got %d", executed.Load())
	}
}

func TestBatch_WithErrors(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	errs := Batch(context.Background(), items, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return errors.New("even number error")
		}
		return nil
	})

	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errs))
	}
}

func TestBatch_Panic(t *testing.T) {
	errs := Batch(context.Background(), []int{1, 2}, 1, "test batch", time.Second, func(ctx context.Context, item int) error {
		if item == 2 {
			panic("boom")
		}
		return nil
	})

	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errs))
	}
}

func TestBatch_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	executed := atomic.Int32{}

	errs := Batch(ctx, []int{1, 2, 3, 4, 5}, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		executed.Add(1)
		return nil
	})

	if executed.Load() != 0 {
		t.Errorf("Expected no executions, got %d", executed.Load())
	}
	if len(errs) != 5 {
		t.Errorf("Expected 5 cancellation errors, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	}
}
