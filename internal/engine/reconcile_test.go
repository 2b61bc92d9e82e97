package engine

import (
	"context"
	"mmbot/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderAt(id string, base models.Asset, baseAmount string, quote models.Asset, quoteAmount string) models.Order {
	return models.NewOrder(id,
		models.NewAssetAmount(base, dec(baseAmount)),
		models.NewAssetAmount(quote, dec(quoteAmount)),
		models.OrderVariantLive,
	)
}

func TestIsSellOrder(t *testing.T) {
	env := newTestEnv(t, newFakeClient())

	buy := orderAt("1", usd, "50", bts, "10")
	sell := orderAt("2", bts, "10", usd, "50")

	assert.False(t, env.engine.IsSellOrder(buy))
	assert.True(t, env.engine.IsBuyOrder(buy))
	assert.True(t, env.engine.IsSellOrder(sell))
	assert.False(t, env.engine.IsBuyOrder(sell))
}

func TestSortOrders(t *testing.T) {
	orders := []models.Order{
		orderAt("a", usd, "3", bts, "1"),
		orderAt("b", usd, "1", bts, "1"),
		orderAt("c", usd, "2", bts, "1"),
		orderAt("d", usd, "1", bts, "1"),
	}

	t.Run("asc", func(t *testing.T) {
		sorted, err := SortOrders(orders, "ASC")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d", "c", "a"}, ids(sorted))
	})

	t.Run("desc", func(t *testing.T) {
		sorted, err := SortOrders(orders, "desc")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b", "d"}, ids(sorted))
	})

	t.Run("invalid", func(t *testing.T) {
		sorted, err := SortOrders(orders, "price")
		assert.ErrorIs(t, err, ErrInvalidSortDirection)
		assert.Nil(t, sorted)
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(orders))
	})
}

func ids(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, order := range orders {
		out = append(out, order.ID)
	}
	return out
}

func TestBuyAndSellOrderFilters(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	orders := []models.Order{
		orderAt("buy-low", usd, "1", bts, "1"),
		orderAt("sell", bts, "1", usd, "4"),
		orderAt("buy-high", usd, "2", bts, "1"),
	}

	buys, err := env.engine.BuyOrders(orders, SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"buy-high", "buy-low"}, ids(buys))

	sells, err := env.engine.SellOrders(orders, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"sell"}, ids(sells))

	_, err = env.engine.BuyOrders(orders, "sideways")
	assert.ErrorIs(t, err, ErrInvalidSortDirection)
}

func TestUpdatedLimitOrder(t *testing.T) {
	// Posted 10 BTS for 5 USD, 4 BTS still for sale.
	limit := limitOrder("1.7.9", bts, "10", usd, "5", "4")

	order := UpdatedLimitOrder(limit)

	assert.Equal(t, "1.7.9", order.ID)
	assert.Equal(t, models.OrderVariantLive, order.Variant)
	assert.Equal(t, bts, order.Base.Asset)
	assertDecimal(t, "4", order.Base.Amount)
	assert.Equal(t, usd, order.Quote.Asset)
	assertDecimal(t, "2", order.Quote.Amount)
	assertDecimal(t, "2", order.Price)
}

func TestGetUpdatedOrder(t *testing.T) {
	client := newFakeClient()
	client.limits = []models.LimitOrder{limitOrder("1.7.1", usd, "50", bts, "10", "25")}
	env := newTestEnv(t, client)

	order, ok, err := env.engine.GetUpdatedOrder(context.Background(), "1.7.1")
	require.NoError(t, err)
	require.True(t, ok)
	assertDecimal(t, "25", order.Base.Amount)
	assertDecimal(t, "5", order.Quote.Amount)

	_, ok, err = env.engine.GetUpdatedOrder(context.Background(), "1.7.404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCalculateOrderData(t *testing.T) {
	env := newTestEnv(t, newFakeClient())

	order := env.engine.CalculateOrderData(models.Order{ID: "1.7.5", Deleted: true}, dec("5"), dec("2"))

	assert.Equal(t, models.OrderVariantSynthesized, order.Variant)
	assert.Equal(t, "1.7.5", order.ID)
	assertDecimal(t, "10", order.Base.Amount)
	assert.Equal(t, "USD", order.Base.Asset.Symbol)
	assertDecimal(t, "5", order.Quote.Amount)
	assert.Equal(t, "BTS", order.Quote.Asset.Symbol)
	assertDecimal(t, "2", order.Price)

	inverted := order.Invert()
	assertDecimal(t, "10", inverted.Quote.Amount)
	assertDecimal(t, "5", inverted.Base.Amount)
	assert.True(t, inverted.IsSynthesized())
}

func TestIsCurrentMarket(t *testing.T) {
	env := newTestEnv(t, newFakeClient())

	assert.True(t, env.engine.IsCurrentMarket(usd.ID, bts.ID))
	assert.True(t, env.engine.IsCurrentMarket(bts.ID, usd.ID))
	assert.False(t, env.engine.IsCurrentMarket("1.3.5", bts.ID))
	assert.False(t, env.engine.IsCurrentMarket(usd.ID, "1.3.5"))
}

func TestOrdersAndAllOrders(t *testing.T) {
	client := newFakeClient()
	eur := models.Asset{ID: "1.3.5", Symbol: "EUR", Precision: 4}
	client.limits = []models.LimitOrder{
		limitOrder("1.7.1", usd, "10", bts, "20", "10"),
		limitOrder("1.7.2", eur, "1", bts, "1", "1"),
	}
	env := newTestEnv(t, client)

	orders, err := env.engine.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.7.1"}, ids(orders))
	assert.Equal(t, 1, client.refreshCalls)

	all, err := env.engine.AllOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.7.1", "1.7.2"}, ids(all))
}
