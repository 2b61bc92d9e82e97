package rest

import (
	"time"

	"github.com/shopspring/decimal"
)

// formatAmount renders value truncated to the asset precision, the way the
// bridge expects it.
func formatAmount(value decimal.Decimal, precision int32) string {
	return value.Truncate(precision).StringFixed(precision)
}

func formatExpiration(now time.Time, ttl time.Duration) string {
	return now.Add(ttl).UTC().Format("2006-01-02T15:04:05")
}
