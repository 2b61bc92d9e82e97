package exchange

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/models"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeBlock        EventType = "Block"
	EventTypeAccount      EventType = "Account"
	EventTypeMarketUpdate EventType = "MarketUpdate"
	EventTypeReconnect    EventType = "Reconnect"
)

// Event is one notification from the ledger. A market update carries exactly
// one of Order, Fill or CallOrder; an unknown kind carries none.
type Event struct {
	Type      EventType
	Block     *models.Block
	Account   *models.AccountUpdate
	Order     *models.Order
	Fill      *models.FilledOrder
	CallOrder *models.CallOrderUpdate
}

// CoreAssetID is the ledger's native asset, used to pay fees when the
// configured fee asset does not exist.
const CoreAssetID = "1.3.0"

var (
	ErrNoPrice       = errors.New("exchange: no price available")
	ErrMissingKey    = errors.New("exchange: private key missing")
	ErrAssetNotFound = errors.New("exchange: asset does not exist")
)

// RemoteError is an error reported by the ledger bridge.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s (code=%d)", e.Message, e.Code)
}

type AccountQuery interface {
	RefreshAccount(ctx context.Context, account string) error
	GetBalances(ctx context.Context, account string) ([]models.AssetAmount, error)
	GetBalance(ctx context.Context, account string, asset models.Asset) (decimal.Decimal, error)
	GetLimitOrders(ctx context.Context, account string) ([]models.LimitOrder, error)
	GetOrder(ctx context.Context, orderID string) (models.Order, error)
}

type MarketQuery interface {
	GetAsset(ctx context.Context, symbol string) (models.Asset, error)
	GetMarket(ctx context.Context, base, quote string) (models.Market, error)
	GetTicker(ctx context.Context, base, quote string) (models.Ticker, error)
}

type OrderSubmitter interface {
	Buy(ctx context.Context, req models.OrderRequest) (models.TxResult, error)
	Sell(ctx context.Context, req models.OrderRequest) (models.TxResult, error)
	Cancel(ctx context.Context, orderIDs []string, account, feeAsset string) error
}

// TxBuffer holds operations that have not been broadcast yet.
type TxBuffer interface {
	ClearTxBuffer()
	Broadcast(ctx context.Context) (models.TxResult, error)
}

type Notifier interface {
	Subscribe(ctx context.Context, account string, market models.Market) (<-chan Event, error)
}

type Client interface {
	AccountQuery
	MarketQuery
	OrderSubmitter
	TxBuffer
	Notifier
}
