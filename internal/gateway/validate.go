package gateway

import (
	"fmt"

	"pytrader/internal/domain"
)

// validateOrder checks the shape and business constraints of an order
// request before it leaves the process. Pure, no I/O. Rules run in a fixed
// order and the first failing rule wins; each produces a distinct message
// that is surfaced to the caller unchanged.
func validateOrder(req domain.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("Symbol must not be empty")
	}
	if !req.Qty.IsPositive() {
		return fmt.Errorf("Quantity must be a positive number")
	}
	switch req.Side {
	case domain.SideBuy, domain.SideSell:
	default:
		return fmt.Errorf("Invalid side %q: must be 'buy' or 'sell'", req.Side)
	}
	switch req.Type {
	case domain.OrderTypeMarket, domain.OrderTypeLimit, domain.OrderTypeStop,
		domain.OrderTypeStopLimit, domain.OrderTypeTrailingStop:
	default:
		return fmt.Errorf("Invalid order type %q: must be one of market, limit, stop, stop_limit, trailing_stop", req.Type)
	}
	switch req.TimeInForce {
	case domain.TimeInForceDay, domain.TimeInForceGTC, domain.TimeInForceOPG,
		domain.TimeInForceCLS, domain.TimeInForceIOC, domain.TimeInForceFOK:
	default:
		return fmt.Errorf("Invalid time in force %q: must be one of day, gtc, opg, cls, ioc, fok", req.TimeInForce)
	}
	if (req.Type == domain.OrderTypeLimit || req.Type == domain.OrderTypeStopLimit) && req.LimitPrice == nil {
		return fmt.Errorf("Limit price is required for limit and stop_limit orders")
	}
	// trailing_stop is exempt: its trigger is the trail, not a stop price.
	if (req.Type == domain.OrderTypeStop || req.Type == domain.OrderTypeStopLimit) && req.StopPrice == nil {
		return fmt.Errorf("Stop price is required for stop and stop_limit orders")
	}
	return nil
}
