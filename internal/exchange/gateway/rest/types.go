package rest

import (
	"encoding/json"
	"mmbot/internal/models"

	"github.com/shopspring/decimal"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type assetDTO struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Precision int32  `json:"precision"`
}

func (a assetDTO) model() models.Asset {
	return models.Asset{ID: a.ID, Symbol: a.Symbol, Precision: a.Precision}
}

type amountDTO struct {
	Asset  assetDTO        `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func (a amountDTO) model() models.AssetAmount {
	return models.NewAssetAmount(a.Asset.model(), a.Amount)
}

type marketDTO struct {
	Base  assetDTO `json:"base"`
	Quote assetDTO `json:"quote"`
}

type tickerDTO struct {
	Latest     decimal.Decimal `json:"latest"`
	LowestAsk  decimal.Decimal `json:"lowest_ask"`
	HighestBid decimal.Decimal `json:"highest_bid"`
}

type limitOrderDTO struct {
	ID        string          `json:"id"`
	ForSale   decimal.Decimal `json:"for_sale"`
	SellPrice struct {
		Base  amountDTO `json:"base"`
		Quote amountDTO `json:"quote"`
	} `json:"sell_price"`
}

func (o limitOrderDTO) model() models.LimitOrder {
	return models.LimitOrder{
		ID:      o.ID,
		ForSale: o.ForSale,
		SellPrice: models.SellPrice{
			Base:  o.SellPrice.Base.model(),
			Quote: o.SellPrice.Quote.model(),
		},
	}
}

type orderDTO struct {
	ID      string    `json:"id"`
	Base    amountDTO `json:"base"`
	Quote   amountDTO `json:"quote"`
	Deleted bool      `json:"deleted"`
}

func (o orderDTO) model() models.Order {
	if o.Deleted {
		return models.Order{ID: o.ID, Deleted: true}
	}
	return models.NewOrder(o.ID, o.Base.model(), o.Quote.model(), models.OrderVariantLive)
}

type operationType string

const (
	opLimitOrderCreate operationType = "limit_order_create"
	opLimitOrderCancel operationType = "limit_order_cancel"
)

type operation struct {
	Type   operationType `json:"type"`
	Params any           `json:"params"`
}

type assetAmountParam struct {
	AssetID string `json:"asset_id"`
	Amount  string `json:"amount"`
}

type createOrderParams struct {
	Seller       string           `json:"seller"`
	AmountToSell assetAmountParam `json:"amount_to_sell"`
	MinToReceive assetAmountParam `json:"min_to_receive"`
	Expiration   string           `json:"expiration"`
	FeeAsset     string           `json:"fee_asset"`
}

type cancelOrderParams struct {
	FeePayingAccount string `json:"fee_paying_account"`
	Order            string `json:"order"`
	FeeAsset         string `json:"fee_asset"`
}

type broadcastRequest struct {
	Operations    []operation `json:"operations"`
	ReturnOrderID bool        `json:"return_order_id"`
}

type broadcastResult struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
}
