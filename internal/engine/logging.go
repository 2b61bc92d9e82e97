package engine

import (
	"mmbot/internal/logger"
	"mmbot/internal/models"

	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("engine").WithFields(logrus.Fields{
		"worker_name": e.cfg.Name,
		"account":     e.cfg.Account,
		"market":      e.cfg.Market,
		"is_disabled": e.Disabled(),
	})
}

// critical marks business-rule faults. logrus has no critical level.
func (e *Engine) critical(msg string, fields logrus.Fields) {
	e.logEntry().WithFields(fields).WithField("severity", "critical").Error(msg)
}

// orderLogEntry signs the fill so an inflow is positive on either side.
func orderLogEntry(worker string, market models.Market, fill models.FilledOrder) logger.OrderLogEntry {
	entry := logger.OrderLogEntry{
		Worker:    worker,
		OrderID:   fill.OrderID,
		Operation: logger.OperationTrade,
		Time:      fill.Time,
	}
	if fill.Base.Asset.Symbol == market.Base.Symbol {
		entry.BaseSymbol = fill.Base.Asset.Symbol
		entry.BaseDelta = fill.Base.Amount.Neg()
		entry.QuoteSymbol = fill.Quote.Asset.Symbol
		entry.QuoteDelta = fill.Quote.Amount
	} else {
		entry.BaseSymbol = fill.Quote.Asset.Symbol
		entry.BaseDelta = fill.Quote.Amount
		entry.QuoteSymbol = fill.Base.Asset.Symbol
		entry.QuoteDelta = fill.Base.Amount.Neg()
	}
	return entry
}

func (e *Engine) writeOrderLog(fill models.FilledOrder) {
	if fill.Time.IsZero() {
		fill.Time = e.now()
	}
	e.ordersLog.Write(orderLogEntry(e.cfg.Name, e.market, fill))
}
