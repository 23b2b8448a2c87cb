package httpapi

import "pytrader/internal/domain"

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// QuotesResponse wraps the per-symbol quote map for GET /quotes.
type QuotesResponse struct {
	Quotes map[string]domain.Quote `json:"quotes"`
}

// PositionsResponse wraps the position list for GET /positions.
type PositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// OrdersResponse wraps the journal listing for GET /orders.
type OrdersResponse struct {
	Orders []domain.OrderResult `json:"orders"`
}

// ErrorResponse is the JSON body for every non-2xx response. RawError
// carries the upstream broker message when one exists.
type ErrorResponse struct {
	Error    string `json:"error"`
	RawError string `json:"raw_error,omitempty"`
}
