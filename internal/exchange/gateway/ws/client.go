package ws

import (
	"context"
	"fmt"
	"mmbot/internal/exchange"
	"mmbot/internal/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func New(url, apiKey, secret string, log *logger.Logger) *Client {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectMin
	b.MaxInterval = reconnectMax

	return &Client{
		url:     url,
		apiKey:  apiKey,
		secret:  secret,
		log:     log,
		events:  make(chan exchange.Event, 100),
		stopCh:  make(chan struct{}),
		backoff: b,
	}
}

// Connect dials the stream and starts the read loop. The events channel is
// closed once ctx is done or Close is called.
func (w *Client) Connect(ctx context.Context) error {
	w.logEntry().WithField("url", w.url).Info("Connecting to stream.")

	if err := w.dial(ctx); err != nil {
		return err
	}

	w.logEntry().Info("Stream connection established.")

	go w.readLoop(ctx)

	return nil
}

func (w *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	conn.SetReadLimit(readLimit)

	w.writeMu.Lock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn = conn
	w.writeMu.Unlock()

	if w.apiKey != "" && w.secret != "" {
		if err := w.authenticate(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Client) Close() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.writeMu.Lock()
		defer w.writeMu.Unlock()
		if w.conn != nil {
			_ = w.conn.Close()
		}
	})
}

func (w *Client) logEntry() *logrus.Entry {
	entry := w.log.WithComponent("stream")
	if account, market := w.subscription(); account != "" {
		entry = entry.WithFields(logrus.Fields{
			"account": account,
			"market":  market.Name(),
		})
	}
	return entry
}

func (w *Client) Events() <-chan exchange.Event {
	return w.events
}
