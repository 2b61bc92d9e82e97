package ws

import (
	"context"
	"mmbot/internal/exchange"
	"time"
)

func (w *Client) readLoop(ctx context.Context) {
	defer close(w.events)
	w.logEntry().Debug("Read loop started.")

	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-w.stopCh:
		}
	}()

	for {
		if w.stopped() {
			return
		}

		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if w.stopped() {
				return
			}
			w.logEntry().WithError(err).Warn("Stream read failed.")

			if !w.reconnect(ctx) {
				return
			}
			continue
		}

		events, err := decodeMessage(data)
		if err != nil {
			w.logEntry().WithError(err).Warn("Failed to decode stream message.")
			continue
		}
		for _, event := range events {
			if !w.emit(event) {
				return
			}
		}
	}
}

// reconnect redials with exponential backoff until it succeeds or the
// client stops, then replays the subscription and emits a Reconnect event.
func (w *Client) reconnect(ctx context.Context) bool {
	w.backoff.Reset()

	for {
		sleep := w.backoff.NextBackOff()
		w.logEntry().WithField("retry_in", sleep.String()).Info("Reconnecting to stream.")

		select {
		case <-w.stopCh:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(sleep):
		}

		if err := w.dial(ctx); err != nil {
			w.logEntry().WithError(err).Warn("Failed to reconnect to stream.")
			continue
		}

		if err := w.subscribe(); err != nil {
			w.logEntry().WithError(err).Warn("Failed to restore stream subscription.")
			continue
		}

		w.logEntry().Info("Stream reconnected, subscription restored.")
		return w.emit(exchange.Event{Type: exchange.EventTypeReconnect})
	}
}

func (w *Client) emit(event exchange.Event) bool {
	select {
	case w.events <- event:
		return true
	case <-w.stopCh:
		return false
	}
}

func (w *Client) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}
