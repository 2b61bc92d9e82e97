package rest

import (
	"context"
	"mmbot/internal/models"
	"net/http"
)

// Buy sells price*amount of req.Base to receive amount of the quote asset.
func (c *Client) Buy(ctx context.Context, req models.OrderRequest) (models.TxResult, error) {
	quote := req.Amount
	params := createOrderParams{
		Seller: req.Account,
		AmountToSell: assetAmountParam{
			AssetID: req.Base.ID,
			Amount:  formatAmount(req.Price.Mul(quote.Amount), req.Base.Precision),
		},
		MinToReceive: assetAmountParam{
			AssetID: quote.Asset.ID,
			Amount:  formatAmount(quote.Amount, quote.Asset.Precision),
		},
		Expiration: formatExpiration(c.now(), req.Expiration),
		FeeAsset:   req.FeeAsset,
	}
	return c.submit(ctx, operation{Type: opLimitOrderCreate, Params: params}, req.ReturnOrderID)
}

// Sell sells amount of the quote asset to receive price*amount of req.Base.
func (c *Client) Sell(ctx context.Context, req models.OrderRequest) (models.TxResult, error) {
	quote := req.Amount
	params := createOrderParams{
		Seller: req.Account,
		AmountToSell: assetAmountParam{
			AssetID: quote.Asset.ID,
			Amount:  formatAmount(quote.Amount, quote.Asset.Precision),
		},
		MinToReceive: assetAmountParam{
			AssetID: req.Base.ID,
			Amount:  formatAmount(req.Price.Mul(quote.Amount), req.Base.Precision),
		},
		Expiration: formatExpiration(c.now(), req.Expiration),
		FeeAsset:   req.FeeAsset,
	}
	return c.submit(ctx, operation{Type: opLimitOrderCreate, Params: params}, req.ReturnOrderID)
}

// Cancel adds one cancel operation per id to a single transaction.
func (c *Client) Cancel(ctx context.Context, orderIDs []string, account, feeAsset string) error {
	for _, id := range orderIDs {
		c.buffer.add(operation{
			Type: opLimitOrderCancel,
			Params: cancelOrderParams{
				FeePayingAccount: account,
				Order:            id,
				FeeAsset:         feeAsset,
			},
		})
	}
	if c.bundle {
		return nil
	}
	_, err := c.broadcast(ctx, false)
	return err
}

func (c *Client) submit(ctx context.Context, op operation, returnOrderID bool) (models.TxResult, error) {
	size := c.buffer.add(op)
	if c.bundle {
		c.log.WithComponent("gateway").WithField("queued", size).Debug("Operation queued for bundle.")
		return models.TxResult{Queued: true}, nil
	}
	return c.broadcast(ctx, returnOrderID)
}

// ClearTxBuffer drops operations left behind by a failed broadcast.
func (c *Client) ClearTxBuffer() {
	c.buffer.clear()
}

func (c *Client) Broadcast(ctx context.Context) (models.TxResult, error) {
	return c.broadcast(ctx, false)
}

// broadcast sends every buffered operation as one transaction. The attempt
// consumes the buffer whether or not the bridge accepts it, so a rejected
// operation is never resent with the next one.
func (c *Client) broadcast(ctx context.Context, returnOrderID bool) (models.TxResult, error) {
	ops := c.buffer.drain()
	if len(ops) == 0 {
		return models.TxResult{}, nil
	}

	body := broadcastRequest{Operations: ops, ReturnOrderID: returnOrderID}
	var resp broadcastResult
	if err := c.doRequest(ctx, http.MethodPost, "/v1/transactions/broadcast", nil, body, true, &resp); err != nil {
		c.log.WithComponent("gateway").WithError(err).WithField("operations", len(ops)).Warn("Transaction rejected, operations dropped.")
		return models.TxResult{}, err
	}

	c.log.WithComponent("gateway").WithFields(map[string]interface{}{
		"tx_id":      resp.ID,
		"operations": len(ops),
	}).Debug("Transaction broadcast.")
	return models.TxResult{ID: resp.ID, OrderID: resp.OrderID}, nil
}
