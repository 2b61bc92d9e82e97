package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryActionAmountToSell(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	transient := errors.New("Assert Exception: amount_to_sell.amount > 0")

	attempts := 0
	got, err := retryAction(context.Background(), env.engine, func() (string, error) {
		attempts++
		if attempts <= 2 {
			return "", transient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, env.sleeps)
	assert.Equal(t, 2, env.client.clearCalls)
	assert.Equal(t, 2, env.client.refreshCalls)
}

func TestRetryActionGivesUpAfterMaxTries(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	transient := errors.New("Assert Exception: amount_to_sell.amount > 0")

	attempts := 0
	_, err := retryAction(context.Background(), env.engine, func() (struct{}, error) {
		attempts++
		return struct{}{}, transient
	})

	assert.Same(t, transient, err)
	assert.Equal(t, MaxTries+1, attempts)
	assert.Len(t, env.sleeps, MaxTries)
	// the last failure is returned as is, without another reset
	assert.Equal(t, MaxTries, env.client.clearCalls)
	assert.Equal(t, MaxTries, env.client.refreshCalls)
}

func TestRetryActionExpiration(t *testing.T) {
	env := newTestEnv(t, newFakeClient())

	attempts := 0
	_, err := retryAction(context.Background(), env.engine, func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("Assert Exception: now <= trx.expiration")
		}
		return 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{6 * time.Second}, env.sleeps)
	assert.Equal(t, 1, env.client.clearCalls)
	assert.Equal(t, 0, env.client.refreshCalls)
}

func TestRetryActionSharesOneCounter(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	errs := []error{
		errors.New("amount_to_sell must be positive"),
		errors.New("transaction expiration in the past"),
		errors.New("amount_to_sell must be positive"),
		errors.New("transaction expiration in the past"),
	}

	attempts := 0
	_, err := retryAction(context.Background(), env.engine, func() (int, error) {
		err := errs[attempts]
		attempts++
		return 0, err
	})

	assert.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 6 * time.Second, 2 * time.Second}, env.sleeps)
}

func TestRetryActionOtherErrorsAreFatal(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	fatal := errors.New("insufficient fee")

	attempts := 0
	_, err := retryAction(context.Background(), env.engine, func() (int, error) {
		attempts++
		return 0, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, env.sleeps)
	assert.Equal(t, 0, env.client.clearCalls)
}

func TestRetryActionStopsOnCancelledContext(t *testing.T) {
	env := newTestEnv(t, newFakeClient())
	env.engine.retrier.Sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryAction(ctx, env.engine, func() (int, error) {
		return 0, errors.New("now <= trx.expiration")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
