package engine

import (
	"context"
	"time"
)

const (
	MaxTries              = 3
	amountToSellRetryWait = 2 * time.Second
	expirationRetryWait   = 6 * time.Second
)

// Retrier decides how long to back off for the two transient ledger
// failures. Sleep is swapped out in tests.
type Retrier struct {
	MaxTries         int
	AmountToSellWait time.Duration
	ExpirationWait   time.Duration
	Sleep            func(ctx context.Context, d time.Duration) error
}

func NewRetrier() *Retrier {
	return &Retrier{
		MaxTries:         MaxTries,
		AmountToSellWait: amountToSellRetryWait,
		ExpirationWait:   expirationRetryWait,
		Sleep:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// retryAction runs a state-mutating remote call. Only the amount_to_sell and
// expiration failures are retried; both share one counter.
func retryAction[T any](ctx context.Context, e *Engine, action func() (T, error)) (T, error) {
	r := e.retrier
	tries := 0
	for {
		result, err := action()
		if err == nil {
			return result, nil
		}

		retryable := isAmountToSellError(err) || isExpirationError(err)
		if !retryable {
			return result, err
		}
		if tries >= r.MaxTries {
			e.logEntry().WithError(err).WithField("tries", tries).Warn("Retry limit reached.")
			return result, err
		}

		wait := r.ExpirationWait
		e.client.ClearTxBuffer()
		if isAmountToSellError(err) {
			if rErr := e.client.RefreshAccount(ctx, e.cfg.Account); rErr != nil {
				e.logEntry().WithError(rErr).Warn("Failed to refresh account before retry.")
			}
			wait = r.AmountToSellWait
		}
		tries++
		e.logEntry().WithError(err).WithFields(map[string]interface{}{
			"try":  tries,
			"wait": wait.String(),
		}).Warn("Ignoring transient ledger error, retrying.")

		if sErr := r.Sleep(ctx, wait); sErr != nil {
			return result, sErr
		}
	}
}
