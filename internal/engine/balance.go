package engine

import (
	"context"
	"fmt"
	"mmbot/internal/exchange"
	"mmbot/internal/models"

	"github.com/shopspring/decimal"
)

func (e *Engine) Balance(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	return e.client.GetBalance(ctx, e.cfg.Account, asset)
}

func (e *Engine) Balances(ctx context.Context) ([]models.AssetAmount, error) {
	return e.client.GetBalances(ctx, e.cfg.Account)
}

// CountAsset adds the free quote/base balance to the funds locked in
// orderIDs. A nil orderIDs means every open order in the market; an empty
// non-nil slice counts the balance only.
func (e *Engine) CountAsset(ctx context.Context, orderIDs []string) (models.AllocationSummary, error) {
	balances, err := e.Balances(ctx)
	if err != nil {
		return models.AllocationSummary{}, fmt.Errorf("failed to get balances: %w", err)
	}

	var limits []models.LimitOrder
	if orderIDs == nil {
		limits, err = e.refreshedLimitOrders(ctx)
		if err != nil {
			return models.AllocationSummary{}, err
		}
		orderIDs = []string{}
		for _, limit := range limits {
			if e.IsCurrentMarket(limit.SellPrice.Base.Asset.ID, limit.SellPrice.Quote.Asset.ID) {
				orderIDs = append(orderIDs, limit.ID)
			}
		}
	} else if len(orderIDs) > 0 {
		limits, err = e.client.GetLimitOrders(ctx, e.cfg.Account)
		if err != nil {
			return models.AllocationSummary{}, fmt.Errorf("failed to get limit orders: %w", err)
		}
	}
	return countAsset(e.market, balances, limits, orderIDs), nil
}

// AllocatedAssets sums what orderIDs keep out of the free balance.
func (e *Engine) AllocatedAssets(ctx context.Context, orderIDs []string) (models.AllocationSummary, error) {
	if len(orderIDs) == 0 {
		return models.AllocationSummary{Quote: decimal.Zero, Base: decimal.Zero}, nil
	}
	limits, err := e.client.GetLimitOrders(ctx, e.cfg.Account)
	if err != nil {
		return models.AllocationSummary{}, fmt.Errorf("failed to get limit orders: %w", err)
	}
	return allocatedAssets(e.market, limits, orderIDs), nil
}

func countAsset(market models.Market, balances []models.AssetAmount, limits []models.LimitOrder, orderIDs []string) models.AllocationSummary {
	sum := models.AllocationSummary{Quote: decimal.Zero, Base: decimal.Zero}
	for _, balance := range balances {
		switch balance.Asset.ID {
		case market.Quote.ID:
			sum.Quote = sum.Quote.Add(balance.Amount)
		case market.Base.ID:
			sum.Base = sum.Base.Add(balance.Amount)
		}
	}
	return sum.Add(allocatedAssets(market, limits, orderIDs))
}

func allocatedAssets(market models.Market, limits []models.LimitOrder, orderIDs []string) models.AllocationSummary {
	sum := models.AllocationSummary{Quote: decimal.Zero, Base: decimal.Zero}
	for _, id := range orderIDs {
		order, ok := findUpdatedOrder(limits, id)
		if !ok {
			continue
		}
		switch order.Base.Asset.ID {
		case market.Quote.ID:
			sum.Quote = sum.Quote.Add(order.Base.Amount)
		case market.Base.ID:
			sum.Base = sum.Base.Add(order.Base.Amount)
		}
	}
	return sum
}

// ConvertAsset values amount of from in to using the latest trade of from/to.
// There is no fallback rate.
func (e *Engine) ConvertAsset(ctx context.Context, value decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return value, nil
	}
	ticker, err := e.client.GetTicker(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker %s/%s: %w", from, to, err)
	}
	if !ticker.Latest.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w for %s/%s", exchange.ErrNoPrice, from, to)
	}
	return value.Mul(ticker.Latest), nil
}

// AccountTotalValue values every balance and every open order of the account
// in target. Tickers are fetched once per asset per call.
func (e *Engine) AccountTotalValue(ctx context.Context, target string) (decimal.Decimal, error) {
	balances, err := e.Balances(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balances: %w", err)
	}
	limits, err := e.refreshedLimitOrders(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rates := make(map[string]decimal.Decimal)
	value := func(amount models.AssetAmount) (decimal.Decimal, error) {
		symbol := amount.Asset.Symbol
		if symbol == target {
			return amount.Amount, nil
		}
		rate, ok := rates[symbol]
		if !ok {
			converted, err := e.ConvertAsset(ctx, decimal.NewFromInt(1), symbol, target)
			if err != nil {
				return decimal.Zero, err
			}
			rate = converted
			rates[symbol] = rate
		}
		return amount.Amount.Mul(rate), nil
	}

	total := decimal.Zero
	for _, balance := range balances {
		v, err := value(balance)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	for _, limit := range limits {
		v, err := value(UpdatedLimitOrder(limit).Base)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}
