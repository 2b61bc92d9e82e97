package strategy

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/events"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	SupportPriceName = "support_price"

	lastAskKey = "last_ask"
	sortDesc   = "DESC"
)

func init() {
	Register(SupportPriceName, NewSupportPrice)
}

// SupportPrice keeps one buy order resting distance below the lowest ask,
// replacing it whenever the ask moves.
type SupportPrice struct {
	worker       Worker
	log          *logger.Logger
	size         decimal.Decimal
	distance     decimal.Decimal
	tickInterval int
	ticks        int
}

func NewSupportPrice(w Worker, log *logger.Logger) (Strategy, error) {
	cfg := w.Config()
	s := &SupportPrice{
		worker:       w,
		log:          log,
		size:         decimal.NewFromFloat(cfg.Float("order_size_quote", 1)),
		distance:     decimal.NewFromFloat(cfg.Float("distance", 0)),
		tickInterval: int(cfg.Float("tick_interval", 3)),
	}
	if !s.size.IsPositive() {
		return nil, fmt.Errorf("worker %s: order_size_quote must be positive", w.Name())
	}
	if s.tickInterval < 1 {
		s.tickInterval = 1
	}

	d := w.Events()
	d.On(events.OnTick, s.onTick)
	d.On(events.OnAccount, s.onChange)
	d.On(events.OnOrderMatched, s.onChange)
	for _, name := range []events.Name{events.OnTick, events.OnAccount, events.OnOrderMatched} {
		d.OnError(name, s.onError)
	}
	return s, nil
}

func (s *SupportPrice) Name() string { return SupportPriceName }

func (s *SupportPrice) logEntry() *logrus.Entry {
	return s.log.WithFields(map[string]interface{}{
		"component": "strategy",
		"strategy":  SupportPriceName,
		"worker":    s.worker.Name(),
	})
}

func (s *SupportPrice) onTick(ctx context.Context, _ exchange.Event) error {
	s.ticks++
	if s.ticks%s.tickInterval != 0 {
		return nil
	}
	return s.Maintain(ctx)
}

func (s *SupportPrice) onChange(ctx context.Context, _ exchange.Event) error {
	return s.Maintain(ctx)
}

func (s *SupportPrice) onError(_ context.Context, _ exchange.Event, err error) {
	s.logEntry().WithError(err).Error("Strategy step failed.")
}

// Maintain places the support order if missing and moves it after the ask.
// In bundle mode everything queued during the step goes out as one
// transaction at the end.
func (s *SupportPrice) Maintain(ctx context.Context) error {
	err := s.maintain(ctx)
	if !s.worker.Config().Bundle {
		return err
	}
	if _, bErr := s.worker.ExecuteBundle(ctx); bErr != nil {
		return errors.Join(err, bErr)
	}
	return err
}

func (s *SupportPrice) maintain(ctx context.Context) error {
	if s.worker.Disabled() {
		return nil
	}
	market := s.worker.Market()

	ticker, err := s.worker.Client().GetTicker(ctx, market.Base.Symbol, market.Quote.Symbol)
	if err != nil {
		return fmt.Errorf("failed to get ticker: %w", err)
	}
	ask := ticker.LowestAsk
	if !ask.IsPositive() {
		s.logEntry().Debug("No asks in market, nothing to support.")
		return nil
	}
	target := ask.Sub(s.distance)
	if !target.IsPositive() {
		s.logEntry().WithField("ask", ask.String()).Warn("Distance exceeds lowest ask.")
		return nil
	}

	var lastAsk decimal.Decimal
	if _, err := s.worker.Get(ctx, lastAskKey, &lastAsk); err != nil {
		return err
	}

	buys, err := s.worker.OwnBuyOrders(ctx, sortDesc)
	if err != nil {
		return err
	}
	if len(buys) > 0 {
		if lastAsk.Equal(ask) {
			return nil
		}
		s.logEntry().WithFields(map[string]interface{}{
			"last_ask": lastAsk.String(),
			"ask":      ask.String(),
		}).Info("Lowest ask moved, replacing support order.")
		if err := s.worker.CancelAllOrders(ctx); err != nil {
			return err
		}
	}

	balance, err := s.worker.Balance(ctx, market.Base)
	if err != nil {
		return err
	}
	if balance.LessThan(s.size.Mul(target)) {
		s.logEntry().WithField("balance", balance.String()).Debug("Not enough balance for support order.")
		return nil
	}

	order, err := s.worker.Buy(ctx, s.size, target)
	if err != nil {
		return err
	}
	if order != nil {
		s.logEntry().WithFields(map[string]interface{}{
			"order_id": order.ID,
			"price":    target.String(),
		}).Info("Support order placed.")
	}
	return s.worker.Set(ctx, lastAskKey, ask)
}
