package ws

import (
	"encoding/json"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"
	"mmbot/internal/models"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

type Client struct {
	url      string
	apiKey   string
	secret   string
	log      *logger.Logger
	conn     *websocket.Conn
	writeMu  sync.Mutex
	events   chan exchange.Event
	stopCh   chan struct{}
	stopOnce sync.Once
	subMu    sync.RWMutex
	account  string
	market   models.Market
	backoff  *backoff.ExponentialBackOff
}

const (
	frameBlock   = "block"
	frameAccount = "account"
	frameMarket  = "market"

	kindFilled    = "filled"
	kindOrder     = "order"
	kindCallOrder = "call_order"
)

// Message is one notification frame pushed by the bridge.
type Message struct {
	Type string          `json:"type"`
	Kind string          `json:"kind,omitempty"`
	TS   int64           `json:"ts"`
	Data json.RawMessage `json:"data"`
}

type AuthMessage struct {
	Op        string `json:"op"`
	APIKey    string `json:"api_key"`
	Expires   int64  `json:"expires"`
	Signature string `json:"signature"`
}

type SubscribeMessage struct {
	Op      string `json:"op"`
	Account string `json:"account"`
	Market  string `json:"market"`
}

const (
	reconnectMin = 1 * time.Second
	reconnectMax = 30 * time.Second
	readLimit    = 2 << 20
)
