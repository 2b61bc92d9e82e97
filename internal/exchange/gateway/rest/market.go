package rest

import (
	"context"
	"fmt"
	"mmbot/internal/exchange"
	"mmbot/internal/models"
	"net/http"
	"net/url"
)

func (c *Client) GetAsset(ctx context.Context, symbol string) (models.Asset, error) {
	var resp assetDTO
	err := c.doRequest(ctx, http.MethodGet, "/v1/assets/"+url.PathEscape(symbol), nil, nil, false, &resp)
	if isNotFound(err) {
		return models.Asset{}, fmt.Errorf("%w: %s", exchange.ErrAssetNotFound, symbol)
	}
	if err != nil {
		return models.Asset{}, err
	}
	return resp.model(), nil
}

func (c *Client) GetMarket(ctx context.Context, base, quote string) (models.Market, error) {
	var resp marketDTO
	if err := c.doRequest(ctx, http.MethodGet, marketPath(base, quote), nil, nil, false, &resp); err != nil {
		return models.Market{}, err
	}
	return models.Market{Base: resp.Base.model(), Quote: resp.Quote.model()}, nil
}

func (c *Client) GetTicker(ctx context.Context, base, quote string) (models.Ticker, error) {
	var resp tickerDTO
	if err := c.doRequest(ctx, http.MethodGet, marketPath(base, quote)+"/ticker", nil, nil, false, &resp); err != nil {
		return models.Ticker{}, err
	}
	return models.Ticker{
		Latest:     resp.Latest,
		LowestAsk:  resp.LowestAsk,
		HighestBid: resp.HighestBid,
	}, nil
}

func marketPath(base, quote string) string {
	return "/v1/markets/" + url.PathEscape(base) + "/" + url.PathEscape(quote)
}
