package gateway

import (
	"context"
	"mmbot/internal/exchange"
	"mmbot/internal/exchange/gateway/rest"
	"mmbot/internal/exchange/gateway/ws"
	"mmbot/internal/logger"
	"mmbot/internal/models"
	"time"
)

type Config struct {
	BaseURL string
	WSURL   string
	APIKey  string
	Secret  string
	Timeout time.Duration
}

// Client talks to the ledger bridge over HTTP and opens one notification
// stream per subscriber.
type Client struct {
	*rest.Client
	cfg Config
	log *logger.Logger
}

var _ exchange.Client = (*Client)(nil)

func New(cfg Config, log *logger.Logger) *Client {
	return &Client{
		Client: rest.New(cfg.BaseURL, cfg.APIKey, cfg.Secret, cfg.Timeout, log),
		cfg:    cfg,
		log:    log,
	}
}

// ForWorker returns a client with its own transaction buffer.
func (c *Client) ForWorker(bundle bool) *Client {
	return &Client{
		Client: c.Client.Worker(bundle),
		cfg:    c.cfg,
		log:    c.log,
	}
}

func (c *Client) Subscribe(ctx context.Context, account string, market models.Market) (<-chan exchange.Event, error) {
	stream := ws.New(c.cfg.WSURL, c.cfg.APIKey, c.cfg.Secret, c.log)
	if err := stream.Connect(ctx); err != nil {
		return nil, err
	}
	if err := stream.Subscribe(account, market); err != nil {
		stream.Close()
		return nil, err
	}
	return stream.Events(), nil
}
