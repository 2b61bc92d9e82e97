package engine

import (
	"context"
	"encoding/json"
	"mmbot/internal/events"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerStateTransitions(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	e := env.engine

	assert.Equal(t, WorkerStateActive, e.State())
	assert.ErrorIs(t, func() error { e.disable(); return e.Resume() }(), ErrInvalidTransition)
	assert.Equal(t, WorkerStateDisabled, e.State())

	e.pause()
	assert.Equal(t, WorkerStateDisabled, e.State(), "pause never clears a fault")

	require.NoError(t, e.Reset())
	assert.Equal(t, WorkerStateActive, e.State())

	e.pause()
	assert.Equal(t, WorkerStatePaused, e.State())
	assert.ErrorIs(t, e.Reset(), ErrInvalidTransition)
	require.NoError(t, e.Resume())
	assert.Equal(t, WorkerStateActive, e.State())
	assert.Equal(t, "active", e.State().String())
}

func TestPauseWorkerKeepsKeyValues(t *testing.T) {
	client := newFakeClient()
	client.limits = []models.LimitOrder{limitOrder("1.7.1", usd, "10", bts, "20", "10")}
	env := newTestEnv(t, client)
	ctx := context.Background()

	require.NoError(t, env.engine.Set(ctx, "last_ask", "1.5"))
	require.NoError(t, env.store.SaveOrder(ctx, models.Order{ID: "1.7.1"}))

	require.NoError(t, env.engine.PauseWorker(ctx))

	assert.Equal(t, WorkerStatePaused, env.engine.State())
	assert.Equal(t, [][]string{{"1.7.1"}}, client.cancelCalls)
	stored, err := env.store.FetchOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	var lastAsk string
	ok, err := env.engine.Get(ctx, "last_ask", &lastAsk)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.5", lastAsk)
}

func TestPurgeClearsEverything(t *testing.T) {
	client := newFakeClient()
	client.limits = []models.LimitOrder{limitOrder("1.7.1", usd, "10", bts, "20", "10")}
	env := newTestEnv(t, client)
	ctx := context.Background()

	require.NoError(t, env.engine.Set(ctx, "last_ask", "1.5"))
	require.NoError(t, env.engine.Purge(ctx))

	assert.Len(t, client.cancelCalls, 1)
	var lastAsk string
	ok, err := env.engine.Get(ctx, "last_ask", &lastAsk)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeWorkerData(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	ctx := context.Background()
	require.NoError(t, env.engine.Set(ctx, "counter", 3))

	require.NoError(t, PurgeWorkerData(ctx, env.backend, "w1"))

	var counter int
	ok, err := env.engine.Get(ctx, "counter", &counter)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitFallsBackToCoreFeeAsset(t *testing.T) {
	client := newFakeClient()
	delete(client.assets, "BTS")
	env := newTestEnv(t, client)

	assert.Equal(t, exchange.CoreAssetID, env.engine.FeeAsset().ID)
	assert.Equal(t, testMarket, env.engine.Market())
}

func TestOrderLogEntrySigns(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		fill models.FilledOrder
		want string
	}{
		{
			name: "base leg in market base",
			fill: models.FilledOrder{
				OrderID: "1.7.5",
				Base:    models.NewAssetAmount(usd, dec("50")),
				Quote:   models.NewAssetAmount(bts, dec("10")),
				Time:    at,
			},
			want: "w1;1.7.5;TRADE;USD;-50;BTS;10;2024-01-02T03:04:05Z",
		},
		{
			name: "base leg in market quote",
			fill: models.FilledOrder{
				OrderID: "1.7.6",
				Base:    models.NewAssetAmount(bts, dec("10")),
				Quote:   models.NewAssetAmount(usd, dec("50")),
				Time:    at,
			},
			want: "w1;1.7.6;TRADE;USD;50;BTS;-10;2024-01-02T03:04:05Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderLogEntry("w1", testMarket, tt.fill).Line())
		})
	}
}

func TestOrderMatchedWritesOrderLog(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	fill := &models.FilledOrder{
		OrderID: "1.7.5",
		Base:    models.NewAssetAmount(usd, dec("50")),
		Quote:   models.NewAssetAmount(bts, dec("10")),
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var matched int
	env.engine.Events().On(events.OnOrderMatched, func(ctx context.Context, event exchange.Event) error {
		matched++
		return nil
	})
	env.engine.HandleEvent(context.Background(), exchange.Event{Type: exchange.EventTypeMarketUpdate, Fill: fill})

	assert.Equal(t, 1, matched)
	assert.True(t, env.engine.RecheckOrders())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(env.orders.String())), &line))
	assert.Equal(t, "w1;1.7.5;TRADE;USD;-50;BTS;10;2024-01-02T03:04:05Z", line["msg"])
	assert.Equal(t, "-50", line["base_delta"])
}

func TestTickRechecksStoredOrders(t *testing.T) {
	client := newFakeClient()
	client.limits = []models.LimitOrder{limitOrder("1.7.1", usd, "10", bts, "20", "4")}
	env := newTestEnv(t, client)
	ctx := context.Background()

	require.NoError(t, env.store.SaveOrder(ctx, models.Order{ID: "1.7.1"}))
	require.NoError(t, env.store.SaveOrder(ctx, models.Order{ID: "1.7.2"}))

	var ticks int
	env.engine.Events().On(events.OnTick, func(ctx context.Context, event exchange.Event) error {
		ticks++
		return nil
	})

	env.engine.HandleEvent(ctx, exchange.Event{Type: exchange.EventTypeReconnect})
	require.True(t, env.engine.RecheckOrders())

	env.engine.HandleEvent(ctx, exchange.Event{Type: exchange.EventTypeBlock, Block: &models.Block{Num: 1}})

	assert.Equal(t, 1, ticks)
	assert.False(t, env.engine.RecheckOrders())
	stored, err := env.store.FetchOrders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assertDecimal(t, "4", stored["1.7.1"].Base.Amount)
}

func TestRunStopsWhenStreamCloses(t *testing.T) {
	client := newFakeClient()
	client.stream = make(chan exchange.Event, 2)
	env := newTestEnv(t, client)

	var accounts int
	env.engine.Events().On(events.OnAccount, func(ctx context.Context, event exchange.Event) error {
		accounts++
		return nil
	})
	client.stream <- exchange.Event{Type: exchange.EventTypeAccount, Account: &models.AccountUpdate{Account: "maker"}}
	close(client.stream)

	require.NoError(t, env.engine.Run(context.Background()))
	assert.Equal(t, 1, accounts)
}
