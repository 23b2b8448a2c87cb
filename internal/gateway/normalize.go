package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"pytrader/internal/domain"
	"pytrader/internal/format"
)

// normalizeAccount maps the remote account snapshot into the canonical
// record, formatting currency amounts at the boundary.
func normalizeAccount(a *alpaca.Account) domain.AccountInfo {
	return domain.AccountInfo{
		AccountNumber:  a.AccountNumber,
		Status:         a.Status,
		Equity:         format.USD(a.Equity),
		BuyingPower:    format.USD(a.BuyingPower),
		Cash:           format.USD(a.Cash),
		PortfolioValue: format.USD(a.PortfolioValue),
		DaytradeCount:  a.DaytradeCount,
		Currency:       a.Currency,
	}
}

// normalizeQuotes maps the remote quote response keyed by symbol. It iterates
// only over symbols actually present in the response: symbols that were
// requested but have no data are silently omitted, not treated as errors.
func normalizeQuotes(remote map[string]marketdata.Quote) map[string]domain.Quote {
	quotes := make(map[string]domain.Quote, len(remote))
	for symbol, q := range remote {
		sym := strings.ToUpper(symbol)
		quotes[sym] = domain.Quote{
			Symbol:    sym,
			AskPrice:  q.AskPrice,
			BidPrice:  q.BidPrice,
			AskSize:   int64(q.AskSize),
			BidSize:   int64(q.BidSize),
			Timestamp: q.Timestamp,
		}
	}
	return quotes
}

// normalizePositions maps remote positions into canonical records, using
// only the price and P/L fields already embedded in each remote record (no
// per-symbol quote lookups). The unrealized P/L percentage is the remote
// fraction multiplied by 100.
func normalizePositions(remote []alpaca.Position) []domain.Position {
	positions := make([]domain.Position, 0, len(remote))
	for i := range remote {
		p := &remote[i]
		pos := domain.Position{
			Symbol:        p.Symbol,
			Qty:           p.Qty.InexactFloat64(),
			AvgEntryPrice: p.AvgEntryPrice.InexactFloat64(),
			AssetClass:    string(p.AssetClass),
			Exchange:      p.Exchange,
		}
		if p.CurrentPrice != nil {
			cp := p.CurrentPrice.InexactFloat64()
			pos.CurrentPrice = &cp
		}
		if p.MarketValue != nil {
			pos.MarketValue = p.MarketValue.InexactFloat64()
		}
		if p.UnrealizedPL != nil {
			pos.UnrealizedPL = p.UnrealizedPL.InexactFloat64()
		}
		if p.UnrealizedPLPC != nil {
			pos.UnrealizedPLPC = p.UnrealizedPLPC.InexactFloat64() * 100
		}
		positions = append(positions, pos)
	}
	return positions
}

// normalizeOrder maps the broker's order acknowledgement into the canonical
// result record.
func normalizeOrder(o *alpaca.Order) domain.OrderResult {
	res := domain.OrderResult{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          domain.Side(o.Side),
		Type:          domain.OrderType(o.Type),
		TimeInForce:   domain.TimeInForce(o.TimeInForce),
		Status:        o.Status,
		LimitPrice:    o.LimitPrice,
		StopPrice:     o.StopPrice,
	}
	if o.Qty != nil {
		res.Qty = *o.Qty
	}
	if !o.CreatedAt.IsZero() {
		res.CreatedAt = o.CreatedAt.Format(time.RFC3339)
	}
	return res
}

// normalizeFailure maps any failure from an outbound operation into the
// uniform *Error shape. Three causes are distinguished by message prefix:
// rate-limit rejections, the broker's own structured errors, and everything
// else. The HTTP layer relies on the Kind to pick status codes.
func normalizeFailure(op string, err error) *Error {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return &Error{
			Kind:    KindRateLimited,
			Op:      op,
			Message: fmt.Sprintf("Rate limit exceeded for %s (%s window). Please try again shortly.", op, rl.Window),
		}
	}

	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:       KindDomain,
			Op:         op,
			Message:    fmt.Sprintf("Alpaca API error: %s (Code: %d)", apiErr.Message, apiErr.Code),
			Raw:        apiErr.Error(),
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
		}
	}

	return &Error{
		Kind:    KindTransport,
		Op:      op,
		Message: fmt.Sprintf("Failed to %s: %v", op, err),
		Raw:     err.Error(),
	}
}
