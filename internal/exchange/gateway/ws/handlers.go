package ws

import (
	"encoding/json"
	"fmt"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"time"
)

type orderFrame struct {
	ID    string             `json:"id"`
	Base  models.AssetAmount `json:"base"`
	Quote models.AssetAmount `json:"quote"`
}

// decodeMessage turns one frame into engine events. Frames of an unknown
// type are dropped; market frames of an unknown kind become an empty
// MarketUpdate so handlers still see them.
func decodeMessage(data []byte) ([]exchange.Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	switch msg.Type {
	case frameBlock:
		var block models.Block
		if err := json.Unmarshal(msg.Data, &block); err != nil {
			return nil, fmt.Errorf("failed to decode block: %w", err)
		}
		if block.Time.IsZero() && msg.TS > 0 {
			block.Time = time.UnixMilli(msg.TS).UTC()
		}
		return []exchange.Event{{Type: exchange.EventTypeBlock, Block: &block}}, nil

	case frameAccount:
		var account models.AccountUpdate
		if err := json.Unmarshal(msg.Data, &account); err != nil {
			return nil, fmt.Errorf("failed to decode account update: %w", err)
		}
		return []exchange.Event{{Type: exchange.EventTypeAccount, Account: &account}}, nil

	case frameMarket:
		return decodeMarket(msg)

	default:
		return nil, nil
	}
}

func decodeMarket(msg Message) ([]exchange.Event, error) {
	event := exchange.Event{Type: exchange.EventTypeMarketUpdate}

	switch msg.Kind {
	case kindFilled:
		var fill models.FilledOrder
		if err := json.Unmarshal(msg.Data, &fill); err != nil {
			return nil, fmt.Errorf("failed to decode fill: %w", err)
		}
		if fill.Time.IsZero() && msg.TS > 0 {
			fill.Time = time.UnixMilli(msg.TS).UTC()
		}
		event.Fill = &fill

	case kindOrder:
		var frame orderFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		order := models.NewOrder(frame.ID, frame.Base, frame.Quote, models.OrderVariantLive)
		event.Order = &order

	case kindCallOrder:
		var call models.CallOrderUpdate
		if err := json.Unmarshal(msg.Data, &call); err != nil {
			return nil, fmt.Errorf("failed to decode call order: %w", err)
		}
		event.CallOrder = &call
	}

	return []exchange.Event{event}, nil
}
