package logger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const OperationTrade = "TRADE"

// OrderLogEntry is one filled trade as seen from the worker. Deltas are signed
// so that an inflow is positive.
type OrderLogEntry struct {
	Worker      string
	OrderID     string
	Operation   string
	BaseSymbol  string
	BaseDelta   decimal.Decimal
	QuoteSymbol string
	QuoteDelta  decimal.Decimal
	Time        time.Time
}

// Line renders the entry in the semicolon separated orders log format.
func (e OrderLogEntry) Line() string {
	return fmt.Sprintf("%s;%s;%s;%s;%s;%s;%s;%s",
		e.Worker,
		e.OrderID,
		e.Operation,
		e.BaseSymbol,
		e.BaseDelta.String(),
		e.QuoteSymbol,
		e.QuoteDelta.String(),
		e.Time.Format(time.RFC3339Nano),
	)
}

// OrdersLog writes filled trades to a dedicated output.
type OrdersLog struct {
	log *Logger
}

func NewOrdersLog(cfg Config) *OrdersLog {
	l := New(cfg)
	l.log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	return &OrdersLog{log: l}
}

func NewOrdersLogWithLogger(l *Logger) *OrdersLog {
	return &OrdersLog{log: l}
}

func (o *OrdersLog) Write(entry OrderLogEntry) {
	if o == nil || o.log == nil {
		return
	}
	o.log.WithFields(logrus.Fields{
		"worker_name":  entry.Worker,
		"order_id":     entry.OrderID,
		"operation":    entry.Operation,
		"base_symbol":  entry.BaseSymbol,
		"base_delta":   entry.BaseDelta.String(),
		"quote_symbol": entry.QuoteSymbol,
		"quote_delta":  entry.QuoteDelta.String(),
		"ts":           entry.Time.Format(time.RFC3339Nano),
	}).Info(entry.Line())
}
