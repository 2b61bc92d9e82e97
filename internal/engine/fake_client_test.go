package engine

import (
	"bytes"
	"context"
	"mmbot/internal/config"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"
	"mmbot/internal/models"
	"mmbot/internal/storage"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usd        = models.Asset{ID: "1.3.121", Symbol: "USD", Precision: 4}
	bts        = models.Asset{ID: "1.3.0", Symbol: "BTS", Precision: 5}
	testMarket = models.Market{Base: usd, Quote: bts}
)

type fakeClient struct {
	mu sync.Mutex

	market   models.Market
	assets   map[string]models.Asset
	balances []models.AssetAmount
	limits   []models.LimitOrder
	orders   map[string]models.Order
	tickers  map[string]models.Ticker

	submitFn func(req models.OrderRequest) (models.TxResult, error)
	cancelFn func(ids []string) error

	buyCalls       []models.OrderRequest
	sellCalls      []models.OrderRequest
	cancelCalls    [][]string
	clearCalls     int
	refreshCalls   int
	broadcastCalls int
	stream         chan exchange.Event
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		market:  testMarket,
		assets:  map[string]models.Asset{"USD": usd, "BTS": bts},
		orders:  make(map[string]models.Order),
		tickers: make(map[string]models.Ticker),
	}
}

func (f *fakeClient) setBalance(asset models.Asset, amount string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.balances {
		if f.balances[i].Asset.ID == asset.ID {
			f.balances[i].Amount = decimal.RequireFromString(amount)
			return
		}
	}
	f.balances = append(f.balances, models.NewAssetAmount(asset, decimal.RequireFromString(amount)))
}

func (f *fakeClient) RefreshAccount(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return nil
}

func (f *fakeClient) GetBalances(_ context.Context, _ string) ([]models.AssetAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AssetAmount(nil), f.balances...), nil
}

func (f *fakeClient) GetBalance(_ context.Context, _ string, asset models.Asset) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, balance := range f.balances {
		if balance.Asset.ID == asset.ID {
			return balance.Amount, nil
		}
	}
	return decimal.Zero, nil
}

func (f *fakeClient) GetLimitOrders(_ context.Context, _ string) ([]models.LimitOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LimitOrder(nil), f.limits...), nil
}

func (f *fakeClient) GetOrder(_ context.Context, orderID string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return models.Order{ID: orderID, Deleted: true}, nil
	}
	return order, nil
}

func (f *fakeClient) GetAsset(_ context.Context, symbol string) (models.Asset, error) {
	asset, ok := f.assets[symbol]
	if !ok {
		return models.Asset{}, exchange.ErrAssetNotFound
	}
	return asset, nil
}

func (f *fakeClient) GetMarket(_ context.Context, _, _ string) (models.Market, error) {
	return f.market, nil
}

func (f *fakeClient) GetTicker(_ context.Context, base, quote string) (models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[base+"/"+quote], nil
}

func (f *fakeClient) submit(req models.OrderRequest) (models.TxResult, error) {
	if f.submitFn != nil {
		return f.submitFn(req)
	}
	return models.TxResult{ID: "tx-1", OrderID: "1.7.100"}, nil
}

func (f *fakeClient) Buy(_ context.Context, req models.OrderRequest) (models.TxResult, error) {
	f.mu.Lock()
	f.buyCalls = append(f.buyCalls, req)
	f.mu.Unlock()
	return f.submit(req)
}

func (f *fakeClient) Sell(_ context.Context, req models.OrderRequest) (models.TxResult, error) {
	f.mu.Lock()
	f.sellCalls = append(f.sellCalls, req)
	f.mu.Unlock()
	return f.submit(req)
}

func (f *fakeClient) Cancel(_ context.Context, ids []string, _, _ string) error {
	f.mu.Lock()
	f.cancelCalls = append(f.cancelCalls, append([]string(nil), ids...))
	f.mu.Unlock()
	if f.cancelFn != nil {
		return f.cancelFn(ids)
	}
	return nil
}

func (f *fakeClient) ClearTxBuffer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
}

func (f *fakeClient) Broadcast(_ context.Context) (models.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcastCalls++
	return models.TxResult{ID: "bundle-1"}, nil
}

func (f *fakeClient) Subscribe(_ context.Context, _ string, _ models.Market) (<-chan exchange.Event, error) {
	if f.stream == nil {
		f.stream = make(chan exchange.Event)
	}
	return f.stream, nil
}

type testEnv struct {
	engine  *Engine
	client  *fakeClient
	store   storage.Store
	backend *storage.MemoryBackend
	logs    *bytes.Buffer
	orders  *bytes.Buffer
	sleeps  []time.Duration
}

func newTestEnv(t *testing.T, client *fakeClient) *testEnv {
	t.Helper()
	env := &testEnv{
		client:  client,
		backend: storage.NewMemoryBackend(),
		logs:    &bytes.Buffer{},
		orders:  &bytes.Buffer{},
	}
	env.store = env.backend.Worker("w1")

	retrier := NewRetrier()
	retrier.Sleep = func(_ context.Context, d time.Duration) error {
		env.sleeps = append(env.sleeps, d)
		return nil
	}

	cfg := config.WorkerConfig{
		Name:     "w1",
		Account:  "maker",
		Market:   "USD:BTS",
		FeeAsset: "BTS",
	}
	env.engine = New(cfg, client, env.store, logger.NewWithWriter(env.logs, "debug"),
		WithRetrier(retrier),
		WithOrdersLog(logger.NewOrdersLogWithLogger(logger.NewWithWriter(env.orders, "info"))),
	)
	require.NoError(t, env.engine.Init(context.Background()))
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// limitOrder builds a ledger record selling forSale of base at base/quote.
func limitOrder(id string, base models.Asset, baseAmount string, quote models.Asset, quoteAmount, forSale string) models.LimitOrder {
	return models.LimitOrder{
		ID:      id,
		ForSale: dec(forSale),
		SellPrice: models.SellPrice{
			Base:  models.NewAssetAmount(base, dec(baseAmount)),
			Quote: models.NewAssetAmount(quote, dec(quoteAmount)),
		},
	}
}
