package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultShutdownTimeout bounds a graceful shutdown when none is configured
const DefaultShutdownTimeout = 30 * time.Second

// ShutdownFunc is a function to call during shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager drains HTTP servers and then runs cleanup functions
type ShutdownManager struct {
	logger        *Logger
	servers       []*http.Server
	shutdownFuncs []ShutdownFunc
	timeout       time.Duration
	mu            sync.Mutex
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(logger *Logger, timeout time.Duration) *ShutdownManager {
	if logger == nil {
		logger = Discard()
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	return &ShutdownManager{
		logger:  logger,
		timeout: timeout,
	}
}

// RegisterServer adds a server to drain on shutdown
func (sm *ShutdownManager) RegisterServer(server *http.Server) {
	if server == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.servers = append(sm.servers, server)
}

// RegisterShutdownFunc registers a function to call after the servers stop
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	if fn == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownFuncs = append(sm.shutdownFuncs, fn)
}

// WaitForShutdown blocks until ctx is done, typically a signal.NotifyContext,
// then performs the shutdown with a fresh timeout.
func (sm *ShutdownManager) WaitForShutdown(ctx context.Context) error {
	<-ctx.Done()
	sm.logger.Info("Shutdown requested, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()
	return sm.Shutdown(shutdownCtx)
}

// Shutdown drains every server in registration order, then runs the
// registered functions concurrently. All errors are joined.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	servers := append([]*http.Server(nil), sm.servers...)
	funcs := append([]ShutdownFunc(nil), sm.shutdownFuncs...)
	sm.mu.Unlock()

	var errs []error
	for _, server := range servers {
		if err := server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).WithField("addr", server.Addr).Error("HTTP server shutdown error")
			errs = append(errs, fmt.Errorf("server %s: %w", server.Addr, err))
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(funcs))
	for i, fn := range funcs {
		wg.Add(1)
		go func(index int, shutdownFn ShutdownFunc) {
			defer wg.Done()
			defer RecoverPanicWithCallback(sm.logger, "shutdown function", func() {
				errCh <- fmt.Errorf("shutdown function %d panicked", index)
			})
			if err := shutdownFn(ctx); err != nil {
				sm.logger.WithError(err).Errorf("Shutdown function %d failed", index)
				errCh <- err
			}
		}(i, fn)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sm.logger.Warn("Shutdown timeout reached, forcing shutdown")
		return errors.Join(append(errs, fmt.Errorf("shutdown timeout reached: %w", ctx.Err()))...)
	}

	close(errCh)
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		sm.logger.Info("Graceful shutdown complete")
	}
	return errors.Join(errs...)
}
