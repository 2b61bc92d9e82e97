package events

import (
	"context"
	"fmt"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"
	"sync"

	"github.com/google/uuid"
)

type Name string

const (
	OnTick            Name = "ontick"
	OnMarketUpdate    Name = "onMarketUpdate"
	OnAccount         Name = "onAccount"
	OnOrderMatched    Name = "onOrderMatched"
	OnOrderPlaced     Name = "onOrderPlaced"
	OnUpdateCallOrder Name = "onUpdateCallOrder"
)

// ErrorEvent is the event that receives failures of handlers attached to name.
func ErrorEvent(name Name) Name {
	return "error_" + name
}

type Handler func(ctx context.Context, event exchange.Event) error

// ErrorHandler receives a failed handler's error together with the event
// that was being dispatched.
type ErrorHandler func(ctx context.Context, event exchange.Event, err error)

// Dispatcher delivers named events to additive handlers in registration order.
// A failing handler never stops the remaining ones.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	onError  map[Name][]ErrorHandler
	log      *logger.Logger
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Name][]Handler),
		onError:  make(map[Name][]ErrorHandler),
		log:      log,
	}
}

func (d *Dispatcher) On(name Name, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
}

// OnError attaches a handler to error_<name>. Without one the error event is a no-op.
func (d *Dispatcher) OnError(name Name, handler ErrorHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError[name] = append(d.onError[name], handler)
}

func (d *Dispatcher) HandlerCount(name Name) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[name])
}

// Fire runs every handler of name. It returns the number of handlers that failed.
func (d *Dispatcher) Fire(ctx context.Context, name Name, event exchange.Event) int {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[name]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return 0
	}

	requestID := uuid.NewString()
	failed := 0
	for i, handler := range handlers {
		if err := d.invoke(ctx, handler, event); err != nil {
			failed++
			if d.log != nil {
				d.log.WithRequestID(requestID).WithFields(map[string]interface{}{
					"component": "events",
					"event":     string(name),
					"handler":   i,
				}).WithError(err).Warn("Event handler failed.")
			}
			d.fireError(ctx, name, event, err)
		}
	}
	return failed
}

// FireMarketUpdate classifies a market notification into exactly one of
// onOrderMatched, onOrderPlaced or onUpdateCallOrder and then delivers it
// unchanged as onMarketUpdate.
func (d *Dispatcher) FireMarketUpdate(ctx context.Context, event exchange.Event) int {
	failed := 0
	if name, ok := Classify(event); ok {
		failed += d.Fire(ctx, name, event)
	}
	return failed + d.Fire(ctx, OnMarketUpdate, event)
}

func Classify(event exchange.Event) (Name, bool) {
	switch {
	case event.Fill != nil:
		return OnOrderMatched, true
	case event.Order != nil:
		return OnOrderPlaced, true
	case event.CallOrder != nil:
		return OnUpdateCallOrder, true
	default:
		return "", false
	}
}

func (d *Dispatcher) fireError(ctx context.Context, name Name, event exchange.Event, cause error) {
	d.mu.RLock()
	handlers := append([]ErrorHandler(nil), d.onError[name]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil && d.log != nil {
					d.log.WithFields(map[string]interface{}{
						"component": "events",
						"event":     string(ErrorEvent(name)),
					}).Error(fmt.Sprintf("Error handler panicked: %v", r))
				}
			}()
			handler(ctx, event, cause)
		}()
	}
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, event exchange.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
