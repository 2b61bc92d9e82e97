package engine

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/models"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidSortDirection = errors.New("engine: sort direction must be ASC or DESC")

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// IsSellOrder reports whether the order reserves something other than the
// market's base asset.
func (e *Engine) IsSellOrder(order models.Order) bool {
	return isSellOrder(e.market, order)
}

func (e *Engine) IsBuyOrder(order models.Order) bool {
	return !isSellOrder(e.market, order)
}

func isSellOrder(market models.Market, order models.Order) bool {
	return order.Base.Asset.Symbol != market.Base.Symbol
}

// SortOrders returns a price-sorted copy. The sort is stable.
func SortOrders(orders []models.Order, direction string) ([]models.Order, error) {
	var cmp func(a, b models.Order) int
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case SortAsc:
		cmp = func(a, b models.Order) int { return a.Price.Cmp(b.Price) }
	case SortDesc:
		cmp = func(a, b models.Order) int { return b.Price.Cmp(a.Price) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortDirection, direction)
	}

	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, cmp)
	return sorted, nil
}

// BuyOrders filters orders down to the buy side, sorted when direction is set.
func (e *Engine) BuyOrders(orders []models.Order, direction string) ([]models.Order, error) {
	return e.filterOrders(orders, direction, e.IsBuyOrder)
}

func (e *Engine) SellOrders(orders []models.Order, direction string) ([]models.Order, error) {
	return e.filterOrders(orders, direction, e.IsSellOrder)
}

func (e *Engine) filterOrders(orders []models.Order, direction string, keep func(models.Order) bool) ([]models.Order, error) {
	var out []models.Order
	for _, order := range orders {
		if keep(order) {
			out = append(out, order)
		}
	}
	if direction == "" {
		return out, nil
	}
	return SortOrders(out, direction)
}

func (e *Engine) OwnBuyOrders(ctx context.Context, direction string) ([]models.Order, error) {
	orders, err := e.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return e.BuyOrders(orders, direction)
}

func (e *Engine) OwnSellOrders(ctx context.Context, direction string) ([]models.Order, error) {
	orders, err := e.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return e.SellOrders(orders, direction)
}

// GetUpdatedOrder looks the order up among the account's open orders.
// A missing id is reported with ok=false; the order is already closed.
func (e *Engine) GetUpdatedOrder(ctx context.Context, orderID string) (models.Order, bool, error) {
	limits, err := e.client.GetLimitOrders(ctx, e.cfg.Account)
	if err != nil {
		return models.Order{}, false, fmt.Errorf("failed to get limit orders: %w", err)
	}
	order, ok := findUpdatedOrder(limits, orderID)
	return order, ok, nil
}

func findUpdatedOrder(limits []models.LimitOrder, orderID string) (models.Order, bool) {
	for _, limit := range limits {
		if limit.ID == orderID {
			return UpdatedLimitOrder(limit), true
		}
	}
	return models.Order{}, false
}

// UpdatedLimitOrder rebuilds an order from the ledger's remaining size. The
// price comes from the posted ratio; the quote leg is derived from for_sale.
func UpdatedLimitOrder(limit models.LimitOrder) models.Order {
	price := decimal.Zero
	if !limit.SellPrice.Quote.Amount.IsZero() {
		price = limit.SellPrice.Base.Amount.Div(limit.SellPrice.Quote.Amount)
	}
	quote := decimal.Zero
	if !price.IsZero() {
		quote = limit.ForSale.Div(price)
	}

	order := models.NewOrder(limit.ID,
		models.NewAssetAmount(limit.SellPrice.Base.Asset, limit.ForSale),
		models.NewAssetAmount(limit.SellPrice.Quote.Asset, quote),
		models.OrderVariantLive,
	)
	order.Price = price
	return order
}

// CalculateOrderData fills in an order the ledger already dropped, using the
// submitted amount (quote) and price (base per quote).
func (e *Engine) CalculateOrderData(order models.Order, amount, price decimal.Decimal) models.Order {
	order.Quote = models.NewAssetAmount(e.market.Quote, amount)
	order.Base = models.NewAssetAmount(e.market.Base, amount.Mul(price))
	order.Price = price
	order.Variant = models.OrderVariantSynthesized
	return order
}

// IsCurrentMarket matches the worker's market in either orientation.
func (e *Engine) IsCurrentMarket(baseAssetID, quoteAssetID string) bool {
	m := e.market
	if quoteAssetID == m.Quote.ID {
		return baseAssetID == m.Base.ID
	}
	if quoteAssetID == m.Base.ID {
		return baseAssetID == m.Quote.ID
	}
	return false
}

// Orders returns the account's open orders in the worker's market.
func (e *Engine) Orders(ctx context.Context) ([]models.Order, error) {
	limits, err := e.refreshedLimitOrders(ctx)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	for _, limit := range limits {
		if !e.IsCurrentMarket(limit.SellPrice.Base.Asset.ID, limit.SellPrice.Quote.Asset.ID) {
			continue
		}
		orders = append(orders, UpdatedLimitOrder(limit))
	}
	return orders, nil
}

// AllOrders returns the account's open orders in every market.
func (e *Engine) AllOrders(ctx context.Context) ([]models.Order, error) {
	limits, err := e.refreshedLimitOrders(ctx)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(limits))
	for _, limit := range limits {
		orders = append(orders, UpdatedLimitOrder(limit))
	}
	return orders, nil
}

func (e *Engine) refreshedLimitOrders(ctx context.Context) ([]models.LimitOrder, error) {
	if err := e.client.RefreshAccount(ctx, e.cfg.Account); err != nil {
		return nil, fmt.Errorf("failed to refresh account: %w", err)
	}
	limits, err := e.client.GetLimitOrders(ctx, e.cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to get limit orders: %w", err)
	}
	return limits, nil
}

// syncOrders drops stored orders the ledger no longer has and clears the
// recheck flag.
func (e *Engine) syncOrders(ctx context.Context) error {
	stored, err := e.store.FetchOrders(ctx)
	if err != nil {
		return err
	}
	live, err := e.Orders(ctx)
	if err != nil {
		return err
	}

	open := make(map[string]struct{}, len(live))
	for _, order := range live {
		open[order.ID] = struct{}{}
	}
	removed := 0
	for id := range stored {
		if _, ok := open[id]; ok {
			continue
		}
		if err := e.store.RemoveOrder(ctx, id); err != nil {
			return err
		}
		removed++
	}
	for _, order := range live {
		if _, ok := stored[order.ID]; ok {
			if err := e.store.SaveOrder(ctx, order); err != nil {
				return err
			}
		}
	}

	e.setRecheck(false)
	e.logEntry().WithFields(map[string]interface{}{
		"open":    len(live),
		"removed": removed,
	}).Info("Orders rechecked.")
	return nil
}

// StoredOrders returns the orders this worker placed and has not seen closed.
func (e *Engine) StoredOrders(ctx context.Context) (map[string]models.Order, error) {
	return e.store.FetchOrders(ctx)
}
