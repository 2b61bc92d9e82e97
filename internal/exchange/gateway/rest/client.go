package rest

import (
	"mmbot/internal/logger"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	baseURL string
	apiKey  string
	secret  string
	bundle  bool
	http    *resty.Client
	log     *logger.Logger
	buffer  *txBuffer
	now     func() time.Time
}

func New(baseURL, apiKey, secret string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWithResty(baseURL, apiKey, secret, resty.New().SetTimeout(timeout), log)
}

func NewWithResty(baseURL, apiKey, secret string, http *resty.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		secret:  secret,
		http:    http,
		log:     log,
		buffer:  &txBuffer{},
		now:     time.Now,
	}
}

// Worker returns a view sharing the HTTP connection pool but with its own
// transaction buffer. In bundle mode operations are queued until Broadcast.
func (c *Client) Worker(bundle bool) *Client {
	view := *c
	view.bundle = bundle
	view.buffer = &txBuffer{}
	return &view
}

func (c *Client) Bundle() bool { return c.bundle }

type txBuffer struct {
	mu  sync.Mutex
	ops []operation
}

func (b *txBuffer) add(op operation) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
	return len(b.ops)
}

func (b *txBuffer) drain() []operation {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := b.ops
	b.ops = nil
	return ops
}

func (b *txBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

func (b *txBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}
