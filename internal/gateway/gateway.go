// Package gateway mediates between local callers (HTTP API, TUI, CLI) and
// the remote Alpaca brokerage. Every operation is wrapped by a shared
// dual-window rate limiter, guarded by connection readiness, and returns
// canonical records; all failures surface as a tagged *Error rather than
// leaking remote exception shapes.
package gateway

import (
	"log/slog"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"pytrader/internal/domain"
)

// Operation names used in rate-limit and failure messages.
const (
	opAccount   = "fetch account info"
	opQuotes    = "fetch latest quotes"
	opPositions = "list positions"
	opOrder     = "submit order"
)

// Gateway is the rate-limited brokerage gateway. One instance is intended to
// be shared by every caller in the process; it is safe for concurrent use.
// The limiter is the only mutable shared state. Connection readiness is
// decided once at construction and never changes: there is no reconnect
// logic and no retry policy.
type Gateway struct {
	client  BrokerClient
	limiter *Limiter
	connErr string // non-empty: every operation short-circuits with this
	log     *slog.Logger
}

// Option configures a Gateway during construction.
type Option func(*Gateway)

// WithLimiter replaces the default dual-window limiter.
func WithLimiter(l *Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithLogger sets the gateway's logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// New creates a Gateway over the given broker client and probes connectivity
// with a single account fetch. If the probe fails, the gateway is created in
// a permanently unusable state: every operation returns the stored failure
// reason without further remote calls.
func New(client BrokerClient, opts ...Option) *Gateway {
	g := &Gateway{
		client:  client,
		limiter: NewLimiter(),
		log:     slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	if _, err := client.GetAccount(); err != nil {
		g.connErr = "Failed to connect to Alpaca API: " + err.Error()
		g.log.Error("connectivity probe failed", "err", err)
	}
	return g
}

// NewAlpaca creates a Gateway backed by the real Alpaca trading and
// market-data clients. Missing credentials skip the connectivity probe and
// pin the gateway unusable with an explanatory message.
func NewAlpaca(apiKey, apiSecret, baseURL, dataURL string, opts ...Option) *Gateway {
	if apiKey == "" || apiSecret == "" {
		g := &Gateway{
			limiter: NewLimiter(),
			connErr: "Alpaca API keys not found. Please set APCA_API_KEY_ID and APCA_API_SECRET_KEY.",
			log:     slog.Default().With("component", "gateway"),
		}
		for _, opt := range opts {
			opt(g)
		}
		return g
	}
	return New(newAlpacaBrokerClient(apiKey, apiSecret, baseURL, dataURL), opts...)
}

// Ready reports whether the construction-time connectivity probe succeeded.
func (g *Gateway) Ready() bool {
	return g.connErr == ""
}

// pre runs the readiness guard and the rate-limit admission shared by every
// operation. A non-nil return is always a *Error and means the remote call
// must not be made.
func (g *Gateway) pre(op string) *Error {
	if g.connErr != "" {
		return &Error{Kind: KindUninitialized, Op: op, Message: g.connErr}
	}
	if err := g.limiter.Admit(op); err != nil {
		g.log.Warn("rate limited", "op", op, "err", err)
		return normalizeFailure(op, err)
	}
	return nil
}

// GetAccountInfo fetches the account snapshot and returns it with currency
// amounts formatted for display.
func (g *Gateway) GetAccountInfo() (domain.AccountInfo, error) {
	if gerr := g.pre(opAccount); gerr != nil {
		return domain.AccountInfo{}, gerr
	}
	acct, err := g.client.GetAccount()
	if err != nil {
		g.log.Warn("remote call failed", "op", opAccount, "err", err)
		return domain.AccountInfo{}, normalizeFailure(opAccount, err)
	}
	return normalizeAccount(acct), nil
}

// GetQuotes fetches the latest quote for each requested symbol. Symbols the
// remote has no data for are omitted from the result, not errors. An empty
// symbol list returns an empty successful result without a remote call and
// without consuming a rate-limit slot.
func (g *Gateway) GetQuotes(symbols []string) (map[string]domain.Quote, error) {
	if g.connErr != "" {
		return nil, &Error{Kind: KindUninitialized, Op: opQuotes, Message: g.connErr}
	}
	if len(symbols) == 0 {
		return map[string]domain.Quote{}, nil
	}
	if err := g.limiter.Admit(opQuotes); err != nil {
		g.log.Warn("rate limited", "op", opQuotes, "err", err)
		return nil, normalizeFailure(opQuotes, err)
	}

	upper := make([]string, len(symbols))
	for i, s := range symbols {
		upper[i] = strings.ToUpper(s)
	}

	remote, err := g.client.GetLatestQuotes(upper)
	if err != nil {
		g.log.Warn("remote call failed", "op", opQuotes, "err", err)
		return nil, normalizeFailure(opQuotes, err)
	}
	return normalizeQuotes(remote), nil
}

// ListPositions fetches all open positions, enriched from the fields already
// embedded in each remote record.
func (g *Gateway) ListPositions() ([]domain.Position, error) {
	if gerr := g.pre(opPositions); gerr != nil {
		return nil, gerr
	}
	remote, err := g.client.GetPositions()
	if err != nil {
		g.log.Warn("remote call failed", "op", opPositions, "err", err)
		return nil, normalizeFailure(opPositions, err)
	}
	return normalizePositions(remote), nil
}

// SubmitOrder validates and normalizes the order request, then forwards it
// to the broker. Validation failures and rate-limit rejections never reach
// the remote.
func (g *Gateway) SubmitOrder(req domain.OrderRequest) (domain.OrderResult, error) {
	if g.connErr != "" {
		return domain.OrderResult{}, &Error{Kind: KindUninitialized, Op: opOrder, Message: g.connErr}
	}
	if err := g.limiter.Admit(opOrder); err != nil {
		g.log.Warn("rate limited", "op", opOrder, "err", err)
		return domain.OrderResult{}, normalizeFailure(opOrder, err)
	}
	if err := validateOrder(req); err != nil {
		return domain.OrderResult{}, &Error{Kind: KindValidation, Op: opOrder, Message: err.Error()}
	}
	// No trail amount or percent field exists on OrderRequest, so a
	// trailing stop cannot be expressed to the broker. Fail explicitly
	// instead of submitting a trigger-less order.
	if req.Type == domain.OrderTypeTrailingStop {
		return domain.OrderResult{}, &Error{
			Kind:    KindValidation,
			Op:      opOrder,
			Message: "Trailing stop orders are not supported: no trail amount or percent can be specified.",
		}
	}

	qty := req.Qty
	remote, err := g.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        strings.ToUpper(req.Symbol),
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type),
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		g.log.Warn("remote call failed", "op", opOrder, "symbol", req.Symbol, "err", err)
		return domain.OrderResult{}, normalizeFailure(opOrder, err)
	}

	g.log.Info("order submitted", "symbol", remote.Symbol, "id", remote.ID, "status", remote.Status)
	return normalizeOrder(remote), nil
}
