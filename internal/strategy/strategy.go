package strategy

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/config"
	"mmbot/internal/events"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"
	"mmbot/internal/models"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Worker is the part of the order engine a strategy drives.
type Worker interface {
	Name() string
	Config() config.WorkerConfig
	Market() models.Market
	Events() *events.Dispatcher
	Client() exchange.MarketQuery
	Disabled() bool

	Balance(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
	OwnBuyOrders(ctx context.Context, direction string) ([]models.Order, error)
	OwnSellOrders(ctx context.Context, direction string) ([]models.Order, error)
	Buy(ctx context.Context, amount, price decimal.Decimal) (*models.Order, error)
	Sell(ctx context.Context, amount, price decimal.Decimal) (*models.Order, error)
	CancelAllOrders(ctx context.Context) error
	ExecuteBundle(ctx context.Context) (models.TxResult, error)

	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Strategy attaches its handlers to the worker's dispatcher when built.
type Strategy interface {
	Name() string
}

type Factory func(w Worker, log *logger.Logger) (Strategy, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the strategy configured for w.
func New(w Worker, log *logger.Logger) (Strategy, error) {
	name := w.Config().Strategy
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return factory(w, log)
}
