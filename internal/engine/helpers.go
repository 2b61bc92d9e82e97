package engine

import (
	"errors"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"strings"
)

func isAmountToSellError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "amount_to_sell.amount > 0") || strings.Contains(msg, "amount_to_sell must be positive")
}

func isExpirationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "now <= trx.expiration") || strings.Contains(msg, "expiration in the past")
}

func isObjectNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "maybe_found != nullptr") || strings.Contains(msg, "Unable to find Object")
}

func isMissingKeyError(err error) bool {
	return errors.Is(err, exchange.ErrMissingKey)
}

func orderIDs(orders []models.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		if order.ID == "" {
			continue
		}
		ids = append(ids, order.ID)
	}
	return ids
}
