package engine

import (
	"github.com/shopspring/decimal"
)

// Truncate cuts value to precision decimal places without rounding up.
// A value below the smallest unit becomes zero.
func Truncate(value decimal.Decimal, precision int32) decimal.Decimal {
	if precision < 0 {
		precision = 0
	}
	return value.Truncate(precision)
}
