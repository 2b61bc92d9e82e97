package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderVariant string

const (
	OrderVariantLive        OrderVariant = "LIVE"
	OrderVariantSynthesized OrderVariant = "SYNTHESIZED"
)

type Asset struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Precision int32  `json:"precision"`
}

type AssetAmount struct {
	Asset  Asset           `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func NewAssetAmount(asset Asset, amount decimal.Decimal) AssetAmount {
	return AssetAmount{Asset: asset, Amount: amount}
}

func (a AssetAmount) String() string {
	return fmt.Sprintf("%s %s", a.Amount.String(), a.Asset.Symbol)
}

// Market is the worker's asset pair. Prices are quoted as BASE/QUOTE.
type Market struct {
	Base  Asset `json:"base"`
	Quote Asset `json:"quote"`
}

func (m Market) Name() string {
	return m.Base.Symbol + ":" + m.Quote.Symbol
}

// ParseMarketName splits "USD:BTS" or "USD/BTS" into base and quote symbols.
func ParseMarketName(name string) (string, string, error) {
	sep := ":"
	if !strings.Contains(name, sep) {
		sep = "/"
	}
	parts := strings.Split(strings.TrimSpace(name), sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid market %q, expected BASE:QUOTE", name)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// Order is a resting order. Base is the leg the order reserves.
type Order struct {
	ID      string          `json:"id,omitempty"`
	Base    AssetAmount     `json:"base"`
	Quote   AssetAmount     `json:"quote"`
	Price   decimal.Decimal `json:"price"`
	Deleted bool            `json:"deleted"`
	Variant OrderVariant    `json:"variant"`
}

func NewOrder(id string, base, quote AssetAmount, variant OrderVariant) Order {
	o := Order{
		ID:      id,
		Base:    base,
		Quote:   quote,
		Variant: variant,
	}
	o.Price = priceOf(base.Amount, quote.Amount)
	return o
}

// Invert swaps the legs and inverts the price.
func (o Order) Invert() Order {
	inverted := o
	inverted.Base, inverted.Quote = o.Quote, o.Base
	inverted.Price = priceOf(inverted.Base.Amount, inverted.Quote.Amount)
	return inverted
}

func (o Order) IsSynthesized() bool {
	return o.Variant == OrderVariantSynthesized
}

func priceOf(base, quote decimal.Decimal) decimal.Decimal {
	if quote.IsZero() {
		return decimal.Zero
	}
	return base.Div(quote)
}

type SellPrice struct {
	Base  AssetAmount `json:"base"`
	Quote AssetAmount `json:"quote"`
}

// LimitOrder is the ledger's raw record. Only ForSale tracks the remaining size.
type LimitOrder struct {
	ID        string          `json:"id"`
	ForSale   decimal.Decimal `json:"for_sale"`
	SellPrice SellPrice       `json:"sell_price"`
}

type FilledOrder struct {
	OrderID string      `json:"order_id"`
	Base    AssetAmount `json:"base"`
	Quote   AssetAmount `json:"quote"`
	Time    time.Time   `json:"time"`
}

type CallOrderUpdate struct {
	ID         string      `json:"id"`
	Debt       AssetAmount `json:"debt"`
	Collateral AssetAmount `json:"collateral"`
}

type Ticker struct {
	Latest     decimal.Decimal `json:"latest"`
	LowestAsk  decimal.Decimal `json:"lowest_ask"`
	HighestBid decimal.Decimal `json:"highest_bid"`
}

type Block struct {
	Num  int64     `json:"num"`
	Time time.Time `json:"time"`
}

type AccountUpdate struct {
	Account string         `json:"account"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// AllocationSummary is always expressed in the market's quote/base units.
type AllocationSummary struct {
	Quote decimal.Decimal `json:"quote"`
	Base  decimal.Decimal `json:"base"`
}

func (s AllocationSummary) Add(other AllocationSummary) AllocationSummary {
	return AllocationSummary{
		Quote: s.Quote.Add(other.Quote),
		Base:  s.Base.Add(other.Base),
	}
}

func (s AllocationSummary) Amounts(m Market) (quote, base AssetAmount) {
	return NewAssetAmount(m.Quote, s.Quote), NewAssetAmount(m.Base, s.Base)
}

type OrderRequest struct {
	Account       string          `json:"account"`
	Price         decimal.Decimal `json:"price"`
	Amount        AssetAmount     `json:"amount"`
	Base          Asset           `json:"base"`
	Expiration    time.Duration   `json:"expiration"`
	FeeAsset      string          `json:"fee_asset"`
	ReturnOrderID bool            `json:"return_order_id"`
}

type TxResult struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Queued  bool   `json:"queued"`
}
