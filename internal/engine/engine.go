package engine

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/config"
	"mmbot/internal/events"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"
	"mmbot/internal/models"
	"mmbot/internal/storage"
	"sync"
	"time"
)

// Engine runs one worker: one account, one market.
type Engine struct {
	cfg       config.WorkerConfig
	client    exchange.Client
	store     storage.Store
	log       *logger.Logger
	ordersLog *logger.OrdersLog
	events    *events.Dispatcher
	retrier   *Retrier
	now       func() time.Time

	market   models.Market
	feeAsset models.Asset

	mu      sync.Mutex
	state   WorkerState
	recheck bool
}

type Option func(*Engine)

func WithOrdersLog(l *logger.OrdersLog) Option {
	return func(e *Engine) { e.ordersLog = l }
}

func WithDispatcher(d *events.Dispatcher) Option {
	return func(e *Engine) { e.events = d }
}

func WithRetrier(r *Retrier) Option {
	return func(e *Engine) { e.retrier = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(cfg config.WorkerConfig, client exchange.Client, store storage.Store, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log,
		now:    time.Now,
		state:  WorkerStateActive,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.retrier == nil {
		e.retrier = NewRetrier()
	}
	if e.events == nil {
		e.events = events.NewDispatcher(log)
	}

	e.events.On(events.OnOrderMatched, e.onOrderMatched)
	return e
}

// Init resolves the market and the fee asset from the ledger.
func (e *Engine) Init(ctx context.Context) error {
	base, quote, err := models.ParseMarketName(e.cfg.Market)
	if err != nil {
		return err
	}
	market, err := e.client.GetMarket(ctx, base, quote)
	if err != nil {
		return fmt.Errorf("failed to load market %s: %w", e.cfg.Market, err)
	}
	e.market = market

	fee, err := e.client.GetAsset(ctx, e.cfg.FeeAsset)
	switch {
	case errors.Is(err, exchange.ErrAssetNotFound):
		e.logEntry().WithField("fee_asset", e.cfg.FeeAsset).Warn("Fee asset does not exist, paying fees in the core asset.")
		fee = models.Asset{ID: exchange.CoreAssetID}
	case err != nil:
		return fmt.Errorf("failed to load fee asset %s: %w", e.cfg.FeeAsset, err)
	}
	e.feeAsset = fee

	e.logEntry().WithFields(map[string]interface{}{
		"base":      market.Base.Symbol,
		"quote":     market.Quote.Symbol,
		"fee_asset": fee.ID,
		"bundle":    e.cfg.Bundle,
	}).Info("Worker initialized.")
	return nil
}

func (e *Engine) Name() string                 { return e.cfg.Name }
func (e *Engine) Account() string              { return e.cfg.Account }
func (e *Engine) Market() models.Market        { return e.market }
func (e *Engine) FeeAsset() models.Asset       { return e.feeAsset }
func (e *Engine) Events() *events.Dispatcher   { return e.events }
func (e *Engine) Config() config.WorkerConfig  { return e.cfg }
func (e *Engine) Client() exchange.MarketQuery { return e.client }
