package pytrader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pytrader/internal/domain"
)

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080/")
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q, want trailing slash stripped", c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func TestGetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.AccountInfo{
			AccountNumber: "123456789",
			Status:        "ACTIVE",
			Equity:        "$100,000.00",
			Currency:      "USD",
		})
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL).GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if info.AccountNumber != "123456789" || info.Equity != "$100,000.00" {
		t.Errorf("account = %+v", info)
	}
}

func TestGetQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "AAPL,MSFT" {
			t.Errorf("symbols = %q, want AAPL,MSFT", got)
		}
		w.Write([]byte(`{"quotes":{"AAPL":{"symbol":"AAPL","ask_price":195.1,"bid_price":195.0}}}`))
	}))
	defer srv.Close()

	quotes, err := NewClient(srv.URL).GetQuotes(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("GetQuotes: %v", err)
	}
	if len(quotes) != 1 || quotes["AAPL"].AskPrice != 195.1 {
		t.Errorf("quotes = %+v", quotes)
	}
}

func TestSubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req domain.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Symbol != "AAPL" || !req.Qty.Equal(decimal.NewFromInt(10)) {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(domain.OrderResult{
			ID:     "ord-1",
			Symbol: "AAPL",
			Qty:    req.Qty,
			Status: "accepted",
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).SubmitOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Qty:         decimal.NewFromInt(10),
		Side:        domain.SideBuy,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if res.ID != "ord-1" || res.Status != "accepted" {
		t.Errorf("result = %+v", res)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Rate limit exceeded for fetch account info (fast window). Please try again shortly."}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetAccount(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "Rate limit exceeded") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}
