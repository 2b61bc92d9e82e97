package ws

import (
	"mmbot/internal/models"
)

// Subscribe asks for block, account and market notifications. The
// subscription is replayed after every reconnect.
func (w *Client) Subscribe(account string, market models.Market) error {
	w.subMu.Lock()
	w.account = account
	w.market = market
	w.subMu.Unlock()
	return w.subscribe()
}

func (w *Client) subscribe() error {
	account, market := w.subscription()
	if account == "" {
		return nil
	}
	return w.writeJSON(SubscribeMessage{
		Op:      "subscribe",
		Account: account,
		Market:  market.Name(),
	})
}

func (w *Client) subscription() (string, models.Market) {
	w.subMu.RLock()
	defer w.subMu.RUnlock()
	return w.account, w.market
}

func (w *Client) writeJSON(v any) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(v)
}
