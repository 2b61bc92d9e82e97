package rest

import (
	"context"
	"errors"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

func (c *Client) RefreshAccount(ctx context.Context, account string) error {
	return c.doRequest(ctx, http.MethodPost, "/v1/accounts/"+url.PathEscape(account)+"/refresh", nil, nil, true, nil)
}

func (c *Client) GetBalances(ctx context.Context, account string) ([]models.AssetAmount, error) {
	var resp []amountDTO
	if err := c.doRequest(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(account)+"/balances", nil, nil, true, &resp); err != nil {
		return nil, err
	}

	balances := make([]models.AssetAmount, 0, len(resp))
	for _, item := range resp {
		balances = append(balances, item.model())
	}
	return balances, nil
}

// GetBalance returns zero for assets the account does not hold.
func (c *Client) GetBalance(ctx context.Context, account string, asset models.Asset) (decimal.Decimal, error) {
	balances, err := c.GetBalances(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	for _, balance := range balances {
		if balance.Asset.ID == asset.ID {
			return balance.Amount, nil
		}
	}
	return decimal.Zero, nil
}

func (c *Client) GetLimitOrders(ctx context.Context, account string) ([]models.LimitOrder, error) {
	var resp []limitOrderDTO
	if err := c.doRequest(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(account)+"/limit-orders", nil, nil, true, &resp); err != nil {
		return nil, err
	}

	orders := make([]models.LimitOrder, 0, len(resp))
	for _, item := range resp {
		orders = append(orders, item.model())
	}
	return orders, nil
}

// GetOrder reports an order the ledger no longer knows as Deleted.
func (c *Client) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	var resp orderDTO
	err := c.doRequest(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, nil, false, &resp)
	if isNotFound(err) {
		return models.Order{ID: orderID, Deleted: true}, nil
	}
	if err != nil {
		return models.Order{}, err
	}
	if resp.ID == "" {
		resp.ID = orderID
	}
	return resp.model(), nil
}

func isNotFound(err error) bool {
	var re *exchange.RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == http.StatusNotFound || strings.Contains(re.Message, "Unable to find Object")
}
