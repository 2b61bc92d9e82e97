package engine

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/models"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderExpiration keeps placed orders alive until cancelled.
const OrderExpiration = 5 * 365 * 24 * time.Hour

type side string

const (
	sideBuy  side = "buy"
	sideSell side = "sell"
)

// Buy places an order buying amount of the quote asset at price (base per quote).
// A nil order with a nil error means nothing was placed: the worker is not
// active, the order failed a business rule, or it was queued into a bundle.
func (e *Engine) Buy(ctx context.Context, amount, price decimal.Decimal) (*models.Order, error) {
	return e.place(ctx, sideBuy, amount, price)
}

// Sell places an order selling amount of the quote asset at price.
func (e *Engine) Sell(ctx context.Context, amount, price decimal.Decimal) (*models.Order, error) {
	return e.place(ctx, sideSell, amount, price)
}

func (e *Engine) place(ctx context.Context, s side, amount, price decimal.Decimal) (*models.Order, error) {
	if !e.acceptsOrders() {
		e.logEntry().WithField("state", e.State().String()).Debug("Worker not active, order skipped.")
		return nil, nil
	}

	consumed := e.market.Base
	required := Truncate(price.Mul(amount), e.market.Base.Precision)
	if s == sideSell {
		consumed = e.market.Quote
		required = Truncate(amount, e.market.Quote.Precision)
	}

	if !required.IsPositive() {
		e.critical(fmt.Sprintf("Trying to %s 0.", s), logrus.Fields{
			"amount": amount.String(),
			"price":  price.String(),
		})
		e.disable()
		return nil, nil
	}

	balance, err := e.client.GetBalance(ctx, e.cfg.Account, consumed)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s balance: %w", consumed.Symbol, err)
	}
	if balance.LessThan(required) {
		e.critical(fmt.Sprintf("Insufficient %s balance, needed %s %s.", s, required.String(), consumed.Symbol), logrus.Fields{
			"balance": balance.String(),
		})
		e.disable()
		return nil, nil
	}

	e.logEntry().WithFields(map[string]interface{}{
		"side":   string(s),
		"amount": required.String(),
		"symbol": consumed.Symbol,
		"price":  price.Round(8).String(),
	}).Info("Placing order.")

	req := models.OrderRequest{
		Account:       e.cfg.Account,
		Price:         price,
		Amount:        models.NewAssetAmount(e.market.Quote, amount),
		Base:          e.market.Base,
		Expiration:    OrderExpiration,
		FeeAsset:      e.feeAsset.ID,
		ReturnOrderID: true,
	}
	submit := e.client.Buy
	if s == sideSell {
		submit = e.client.Sell
	}
	tx, err := retryAction(ctx, e, func() (models.TxResult, error) {
		return submit(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	e.logEntry().WithFields(map[string]interface{}{
		"tx_id":    tx.ID,
		"order_id": tx.OrderID,
		"queued":   tx.Queued,
	}).Debug("Order transaction sent.")

	if tx.OrderID == "" {
		return nil, nil
	}

	order, err := e.client.GetOrder(ctx, tx.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get placed order %s: %w", tx.OrderID, err)
	}
	if order.ID == "" {
		order.ID = tx.OrderID
	}
	if order.Deleted {
		order = e.CalculateOrderData(order, amount, price)
		if s == sideSell {
			order = order.Invert()
		}
		e.setRecheck(true)
	}

	if err := e.store.SaveOrder(ctx, order); err != nil {
		e.logEntry().WithError(err).WithField("order_id", order.ID).Warn("Failed to save order.")
	}
	e.log.WithOrderID(order.ID).WithFields(map[string]interface{}{
		"component": "engine",
		"worker":    e.cfg.Name,
		"variant":   string(order.Variant),
	}).Info("Order placed.")
	return &order, nil
}

// CancelOrders cancels the given orders in one batch. Orders without an id
// are skipped and an order that is already gone counts as cancelled.
func (e *Engine) CancelOrders(ctx context.Context, orders ...models.Order) error {
	ids := orderIDs(orders)
	if len(ids) == 0 {
		return nil
	}

	err := e.cancel(ctx, ids)
	switch {
	case err == nil:
		return nil
	case isMissingKeyError(err):
		e.logEntry().WithError(err).Error("Unable to cancel order(s), private key missing.")
		return err
	case len(ids) == 1:
		if isObjectNotFoundError(err) {
			return nil
		}
		e.logEntry().WithError(err).WithField("order_id", ids[0]).Error("Unable to cancel order.")
		return err
	}

	e.logEntry().WithError(err).WithField("count", len(ids)).Warn("Batch cancel failed, cancelling orders one by one.")
	var errs []error
	for _, id := range ids {
		if cErr := e.cancel(ctx, []string{id}); cErr != nil && !isObjectNotFoundError(cErr) {
			e.logEntry().WithError(cErr).WithField("order_id", id).Error("Unable to cancel order.")
			errs = append(errs, fmt.Errorf("cancel %s: %w", id, cErr))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) cancel(ctx context.Context, ids []string) error {
	_, err := retryAction(ctx, e, func() (struct{}, error) {
		return struct{}{}, e.client.Cancel(ctx, ids, e.cfg.Account, e.feeAsset.ID)
	})
	if err != nil {
		if isObjectNotFoundError(err) {
			e.client.ClearTxBuffer()
		}
		return err
	}
	if e.cfg.Bundle {
		// Only queued; bookkeeping is reconciled after ExecuteBundle.
		return nil
	}
	for _, id := range ids {
		if rErr := e.store.RemoveOrder(ctx, id); rErr != nil {
			e.logEntry().WithError(rErr).WithField("order_id", id).Warn("Failed to remove order from storage.")
		}
	}
	return nil
}

func (e *Engine) CancelAllOrders(ctx context.Context) error {
	orders, err := e.Orders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}
	e.logEntry().WithField("count", len(orders)).Info("Canceling all orders.")
	if err := e.CancelOrders(ctx, orders...); err != nil {
		return err
	}
	e.logEntry().Info("Orders canceled.")
	return nil
}

// ExecuteBundle broadcasts operations queued while the worker runs in bundle
// mode. Stored orders are rechecked on the next tick.
func (e *Engine) ExecuteBundle(ctx context.Context) (models.TxResult, error) {
	tx, err := e.client.Broadcast(ctx)
	e.setRecheck(true)
	if err != nil {
		return models.TxResult{}, fmt.Errorf("failed to broadcast bundle: %w", err)
	}
	e.logEntry().WithField("tx_id", tx.ID).Info("Bundle broadcast.")
	return tx, nil
}
