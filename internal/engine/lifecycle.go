package engine

import (
	"context"
	"fmt"
	"mmbot/internal/storage"
)

// PauseWorker cancels every order and forgets them. Persisted key/values stay.
func (e *Engine) PauseWorker(ctx context.Context) error {
	if err := e.CancelAllOrders(ctx); err != nil {
		return err
	}
	if err := e.store.ClearOrders(ctx); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	e.pause()
	e.logEntry().Info("Worker paused.")
	return nil
}

// Purge removes the worker: bookkeeping, open orders and all persisted state.
func (e *Engine) Purge(ctx context.Context) error {
	if err := e.store.ClearOrders(ctx); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	if err := e.CancelAllOrders(ctx); err != nil {
		return err
	}
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear worker state: %w", err)
	}
	e.logEntry().Warn("Worker purged.")
	return nil
}

// PurgeWorkerData drops a worker's persisted state without a running engine.
func PurgeWorkerData(ctx context.Context, backend storage.Backend, name string) error {
	return backend.ClearWorkerData(ctx, name)
}

// Get reads a persisted worker value into out.
func (e *Engine) Get(ctx context.Context, key string, out any) (bool, error) {
	return e.store.Get(ctx, key, out)
}

func (e *Engine) Set(ctx context.Context, key string, value any) error {
	return e.store.Set(ctx, key, value)
}
