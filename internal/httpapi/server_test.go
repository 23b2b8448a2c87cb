package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"pytrader/internal/domain"
	"pytrader/internal/gateway"
	"pytrader/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// stubBroker implements gateway.BrokerClient in memory.
type stubBroker struct {
	account   *alpaca.Account
	quotes    map[string]marketdata.Quote
	positions []alpaca.Position
	order     *alpaca.Order
	orderErr  error
}

var _ gateway.BrokerClient = (*stubBroker)(nil)

func (s *stubBroker) GetAccount() (*alpaca.Account, error) {
	return s.account, nil
}

func (s *stubBroker) GetLatestQuotes(symbols []string) (map[string]marketdata.Quote, error) {
	out := make(map[string]marketdata.Quote)
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

func (s *stubBroker) GetPositions() ([]alpaca.Position, error) {
	return s.positions, nil
}

func (s *stubBroker) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return s.order, nil
}

// memJournal is an in-memory store.OrderJournal.
type memJournal struct {
	orders []domain.OrderResult
}

var _ store.OrderJournal = (*memJournal)(nil)

func (m *memJournal) RecordOrder(_ context.Context, res domain.OrderResult) error {
	m.orders = append(m.orders, res)
	return nil
}

func (m *memJournal) ListOrders(_ context.Context, limit int) ([]domain.OrderResult, error) {
	if limit > len(m.orders) {
		limit = len(m.orders)
	}
	return m.orders[:limit], nil
}

func (m *memJournal) Close() error { return nil }

// memQuoteLog is an in-memory store.QuoteLog.
type memQuoteLog struct {
	appended []map[string]domain.Quote
}

var _ store.QuoteLog = (*memQuoteLog)(nil)

func (m *memQuoteLog) AppendQuotes(_ context.Context, quotes map[string]domain.Quote) error {
	m.appended = append(m.appended, quotes)
	return nil
}

func (m *memQuoteLog) ReadQuotes(_ context.Context, date string) ([]domain.Quote, error) {
	return nil, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testAccount() *alpaca.Account {
	return &alpaca.Account{
		AccountNumber:  "123456789",
		Status:         "ACTIVE",
		Equity:         dec("100000.00"),
		BuyingPower:    dec("200000.00"),
		Cash:           dec("50000.00"),
		PortfolioValue: dec("100000.00"),
		Currency:       "USD",
	}
}

func newTestServer(t *testing.T, stub *stubBroker, journal store.OrderJournal, quoteLog store.QuoteLog) *httptest.Server {
	t.Helper()
	gw := gateway.New(stub, gateway.WithLogger(quietLogger()))
	if !gw.Ready() {
		t.Fatal("gateway not ready")
	}
	srv := httptest.NewServer(NewServer(gw, journal, quoteLog, quietLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeErrorBody(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubBroker{account: testAccount()}, nil, nil)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || !body.Ready {
		t.Errorf("health = %+v", body)
	}
}

func TestGetAccount(t *testing.T) {
	srv := newTestServer(t, &stubBroker{account: testAccount()}, nil, nil)

	resp, err := http.Get(srv.URL + "/account")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var info domain.AccountInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.AccountNumber != "123456789" || info.Equity != "$100,000.00" {
		t.Errorf("account = %+v", info)
	}
}

func TestGetQuotesLogsToQuoteLog(t *testing.T) {
	ts := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	stub := &stubBroker{
		account: testAccount(),
		quotes: map[string]marketdata.Quote{
			"AAPL": {AskPrice: 195.1, BidPrice: 195.0, AskSize: 3, BidSize: 5, Timestamp: ts},
		},
	}
	quoteLog := &memQuoteLog{}
	srv := newTestServer(t, stub, nil, quoteLog)

	resp, err := http.Get(srv.URL + "/quotes?symbols=aapl,MISSING")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body QuotesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Quotes) != 1 {
		t.Fatalf("quotes = %+v, want only AAPL", body.Quotes)
	}
	if q, ok := body.Quotes["AAPL"]; !ok || q.AskPrice != 195.1 {
		t.Errorf("quotes = %+v", body.Quotes)
	}
	if len(quoteLog.appended) != 1 {
		t.Errorf("quote log received %d batches, want 1", len(quoteLog.appended))
	}
}

func TestGetPositionsEmpty(t *testing.T) {
	srv := newTestServer(t, &stubBroker{account: testAccount()}, nil, nil)

	resp, err := http.Get(srv.URL + "/positions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body PositionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Positions == nil || len(body.Positions) != 0 {
		t.Errorf("positions = %#v, want empty non-nil slice", body.Positions)
	}
}

func TestSubmitOrderRecordsJournal(t *testing.T) {
	qty := dec("10")
	stub := &stubBroker{
		account: testAccount(),
		order: &alpaca.Order{
			ID:          "ord-1",
			Symbol:      "AAPL",
			Qty:         &qty,
			Side:        alpaca.Buy,
			Type:        alpaca.Market,
			TimeInForce: alpaca.Day,
			Status:      "accepted",
			CreatedAt:   time.Date(2024, 6, 3, 14, 31, 0, 0, time.UTC),
		},
	}
	journal := &memJournal{}
	srv := newTestServer(t, stub, journal, nil)

	payload := `{"symbol":"AAPL","qty":"10","side":"buy","type":"market","time_in_force":"day"}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var res domain.OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.ID != "ord-1" || res.Status != "accepted" {
		t.Errorf("result = %+v", res)
	}
	if len(journal.orders) != 1 || journal.orders[0].ID != "ord-1" {
		t.Errorf("journal = %+v, want the acknowledged order recorded", journal.orders)
	}
}

func TestSubmitOrderValidationError(t *testing.T) {
	journal := &memJournal{}
	srv := newTestServer(t, &stubBroker{account: testAccount()}, journal, nil)

	payload := `{"symbol":"","qty":"10","side":"buy","type":"market","time_in_force":"day"}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeErrorBody(t, resp)
	if !strings.Contains(body.Error, "Symbol must not be empty") {
		t.Errorf("error = %q", body.Error)
	}
	if len(journal.orders) != 0 {
		t.Errorf("rejected order must not reach the journal: %+v", journal.orders)
	}
}

func TestSubmitOrderDomainErrorPassthrough(t *testing.T) {
	stub := &stubBroker{
		account:  testAccount(),
		orderErr: &alpaca.APIError{StatusCode: 403, Code: 403, Message: "insufficient buying power"},
	}
	srv := newTestServer(t, stub, nil, nil)

	payload := `{"symbol":"AAPL","qty":"1000000","side":"buy","type":"market","time_in_force":"day"}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want the broker's 403 passed through", resp.StatusCode)
	}
	body := decodeErrorBody(t, resp)
	if !strings.Contains(body.Error, "Alpaca API error") {
		t.Errorf("error = %q", body.Error)
	}
	if !strings.Contains(body.RawError, "insufficient buying power") {
		t.Errorf("raw_error = %q", body.RawError)
	}
}

func TestUninitializedGateway(t *testing.T) {
	gw := gateway.NewAlpaca("", "", "", "", gateway.WithLogger(quietLogger()))
	srv := httptest.NewServer(NewServer(gw, nil, nil, quietLogger()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/account")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	body := decodeErrorBody(t, resp)
	if !strings.Contains(body.Error, "API keys not found") {
		t.Errorf("error = %q", body.Error)
	}

	// Health stays reachable and reports degraded.
	resp2, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var health HealthResponse
	if err := json.NewDecoder(resp2.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Ready || health.Status != "degraded" {
		t.Errorf("health = %+v", health)
	}
}

func TestRateLimitedReturns429(t *testing.T) {
	stub := &stubBroker{account: testAccount()}
	limiter := gateway.NewLimiterWithWindows(1, time.Hour, 100, time.Hour)
	gw := gateway.New(stub, gateway.WithLimiter(limiter), gateway.WithLogger(quietLogger()))
	srv := httptest.NewServer(NewServer(gw, nil, nil, quietLogger()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/account")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first call status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/positions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	body := decodeErrorBody(t, resp)
	if !strings.Contains(body.Error, "Rate limit exceeded for list positions") {
		t.Errorf("error = %q", body.Error)
	}
}

func TestListOrders(t *testing.T) {
	journal := &memJournal{orders: []domain.OrderResult{
		{ID: "a", Symbol: "AAPL", Qty: dec("1"), Side: domain.SideBuy, Type: domain.OrderTypeMarket, TimeInForce: domain.TimeInForceDay, Status: "filled"},
		{ID: "b", Symbol: "MSFT", Qty: dec("2"), Side: domain.SideSell, Type: domain.OrderTypeMarket, TimeInForce: domain.TimeInForceDay, Status: "filled"},
	}}
	srv := newTestServer(t, &stubBroker{account: testAccount()}, journal, nil)

	resp, err := http.Get(srv.URL + "/orders?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body OrdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Orders) != 1 || body.Orders[0].ID != "a" {
		t.Errorf("orders = %+v", body.Orders)
	}
}

func TestListOrdersInvalidLimit(t *testing.T) {
	srv := newTestServer(t, &stubBroker{account: testAccount()}, &memJournal{}, nil)

	resp, err := http.Get(srv.URL + "/orders?limit=zero")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
