package engine

import (
	"context"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountAsset(t *testing.T) {
	client := newFakeClient()
	client.setBalance(bts, "3")
	client.setBalance(usd, "0")
	// Sell order locking 2 BTS.
	client.limits = []models.LimitOrder{limitOrder("1.7.1", bts, "2", usd, "1", "2")}
	env := newTestEnv(t, client)

	sum, err := env.engine.CountAsset(context.Background(), nil)
	require.NoError(t, err)
	assertDecimal(t, "5", sum.Quote)
	assertDecimal(t, "0", sum.Base)

	quote, base := sum.Amounts(env.engine.Market())
	assert.Equal(t, bts, quote.Asset)
	assert.Equal(t, usd, base.Asset)

	sum, err = env.engine.CountAsset(context.Background(), []string{})
	require.NoError(t, err)
	assertDecimal(t, "3", sum.Quote)
}

func TestCountAssetSelectedOrders(t *testing.T) {
	client := newFakeClient()
	client.setBalance(usd, "10")
	client.limits = []models.LimitOrder{
		limitOrder("1.7.1", usd, "5", bts, "10", "5"),
		limitOrder("1.7.2", usd, "7", bts, "14", "7"),
	}
	env := newTestEnv(t, client)

	sum, err := env.engine.CountAsset(context.Background(), []string{"1.7.2", "1.7.404"})
	require.NoError(t, err)
	assertDecimal(t, "17", sum.Base)
	assertDecimal(t, "0", sum.Quote)
}

func TestAllocatedAssets(t *testing.T) {
	client := newFakeClient()
	client.limits = []models.LimitOrder{
		limitOrder("1.7.1", usd, "5", bts, "10", "5"),
		limitOrder("1.7.2", bts, "8", usd, "4", "6"),
	}
	env := newTestEnv(t, client)

	sum, err := env.engine.AllocatedAssets(context.Background(), []string{"1.7.1", "1.7.2"})
	require.NoError(t, err)
	assertDecimal(t, "5", sum.Base)
	assertDecimal(t, "6", sum.Quote)

	empty, err := env.engine.AllocatedAssets(context.Background(), nil)
	require.NoError(t, err)
	assertDecimal(t, "0", empty.Base)
	assertDecimal(t, "0", empty.Quote)
}

func TestConvertAsset(t *testing.T) {
	client := newFakeClient()
	client.tickers["BTS/USD"] = models.Ticker{Latest: dec("0.5")}
	env := newTestEnv(t, client)

	got, err := env.engine.ConvertAsset(context.Background(), dec("10"), "BTS", "USD")
	require.NoError(t, err)
	assertDecimal(t, "5", got)

	got, err = env.engine.ConvertAsset(context.Background(), dec("10"), "USD", "USD")
	require.NoError(t, err)
	assertDecimal(t, "10", got)

	_, err = env.engine.ConvertAsset(context.Background(), dec("10"), "USD", "BTS")
	assert.ErrorIs(t, err, exchange.ErrNoPrice)
}

func TestAccountTotalValue(t *testing.T) {
	client := newFakeClient()
	client.setBalance(usd, "100")
	client.setBalance(bts, "10")
	client.tickers["BTS/USD"] = models.Ticker{Latest: dec("0.5")}
	client.limits = []models.LimitOrder{
		limitOrder("1.7.1", bts, "8", usd, "4", "4"),
		limitOrder("1.7.2", usd, "3", bts, "6", "3"),
	}
	env := newTestEnv(t, client)

	total, err := env.engine.AccountTotalValue(context.Background(), "USD")
	require.NoError(t, err)
	// 100 + 10*0.5 + 4*0.5 + 3
	assertDecimal(t, "110", total)

	client.tickers["BTS/USD"] = models.Ticker{}
	_, err = env.engine.AccountTotalValue(context.Background(), "USD")
	assert.ErrorIs(t, err, exchange.ErrNoPrice)
}
