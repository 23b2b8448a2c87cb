// Package domain defines the canonical records exchanged between the
// brokerage gateway and its callers (HTTP API, TUI, CLI). They are
// independent of the remote broker's wire representation.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType identifies how an order is priced and triggered.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeStopLimit    OrderType = "stop_limit"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

// TimeInForce controls how long an order remains active.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceOPG TimeInForce = "opg"
	TimeInForceCLS TimeInForce = "cls"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// AccountInfo is a snapshot of the trading account. Currency amounts are
// formatted as fixed two-decimal strings with thousands separators
// (e.g. "$100,000.00"); the raw decimals stay inside the gateway.
type AccountInfo struct {
	AccountNumber  string `json:"account_number"`
	Status         string `json:"status"`
	Equity         string `json:"equity"`
	BuyingPower    string `json:"buying_power"`
	Cash           string `json:"cash"`
	PortfolioValue string `json:"portfolio_value"`
	DaytradeCount  int64  `json:"daytrade_count"`
	Currency       string `json:"currency"`
}

// Quote is the latest bid/ask for a symbol. Quotes are ephemeral and never
// cached between calls.
type Quote struct {
	Symbol    string    `json:"symbol"`
	AskPrice  float64   `json:"ask_price"`
	BidPrice  float64   `json:"bid_price"`
	AskSize   int64     `json:"ask_size"`
	BidSize   int64     `json:"bid_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Position is an open position enriched with the price and P/L fields
// already embedded in the remote record. UnrealizedPLPC is a percentage
// (remote fraction multiplied by 100).
type Position struct {
	Symbol         string   `json:"symbol"`
	Qty            float64  `json:"qty"`
	AvgEntryPrice  float64  `json:"avg_entry_price"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	MarketValue    float64  `json:"market_value"`
	UnrealizedPL   float64  `json:"unrealized_pl"`
	UnrealizedPLPC float64  `json:"unrealized_plpc"`
	AssetClass     string   `json:"asset_class"`
	Exchange       string   `json:"exchange"`
}

// OrderRequest is a trade order as supplied by a caller, before validation
// and normalization. The symbol is upper-cased before submission.
type OrderRequest struct {
	Symbol        string           `json:"symbol"`
	Qty           decimal.Decimal  `json:"qty"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// OrderResult is the canonical record of a submitted order as acknowledged
// by the broker.
type OrderResult struct {
	ID            string           `json:"id"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
	Symbol        string           `json:"symbol"`
	Qty           decimal.Decimal  `json:"qty"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	Status        string           `json:"status"`
	CreatedAt     string           `json:"created_at,omitempty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
}
