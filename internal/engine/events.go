package engine

import (
	"context"
	"fmt"
	"mmbot/internal/events"
	"mmbot/internal/exchange"
)

// Run subscribes to the worker's notifications and handles them one at a
// time until ctx is done or the stream closes.
func (e *Engine) Run(ctx context.Context) error {
	stream, err := e.client.Subscribe(ctx, e.cfg.Account, e.market)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	e.logEntry().Info("Worker started.")
	e.handleEvents(ctx, stream)
	return ctx.Err()
}

func (e *Engine) handleEvents(ctx context.Context, stream <-chan exchange.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				e.logEntry().Warn("Event stream closed.")
				return
			}
			e.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent routes one notification to the named events.
func (e *Engine) HandleEvent(ctx context.Context, event exchange.Event) {
	switch event.Type {
	case exchange.EventTypeBlock:
		if e.RecheckOrders() {
			if err := e.syncOrders(ctx); err != nil {
				e.logEntry().WithError(err).Warn("Failed to recheck orders.")
			}
		}
		e.events.Fire(ctx, events.OnTick, event)
	case exchange.EventTypeAccount:
		e.events.Fire(ctx, events.OnAccount, event)
	case exchange.EventTypeMarketUpdate:
		e.events.FireMarketUpdate(ctx, event)
	case exchange.EventTypeReconnect:
		e.logEntry().Info("Stream reconnected, orders will be rechecked.")
		e.setRecheck(true)
	}
}

func (e *Engine) onOrderMatched(_ context.Context, event exchange.Event) error {
	if event.Fill == nil {
		return nil
	}
	e.writeOrderLog(*event.Fill)
	e.setRecheck(true)
	return nil
}
