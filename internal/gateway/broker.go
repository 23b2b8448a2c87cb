package gateway

import (
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// BrokerClient abstracts the remote brokerage boundary: a synchronous call
// surface that returns *alpaca.APIError for broker-rejected requests and a
// generic error for everything else (network, serialization).
type BrokerClient interface {
	// GetAccount returns the current account snapshot.
	GetAccount() (*alpaca.Account, error)

	// GetLatestQuotes returns the latest quote per symbol. Symbols with no
	// data are simply absent from the result map.
	GetLatestQuotes(symbols []string) (map[string]marketdata.Quote, error)

	// GetPositions returns all open positions.
	GetPositions() ([]alpaca.Position, error)

	// PlaceOrder submits an order for execution.
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
}

// Compile-time interface check.
var _ BrokerClient = (*alpacaBrokerClient)(nil)

// alpacaBrokerClient implements BrokerClient against the Alpaca trading and
// market-data APIs.
type alpacaBrokerClient struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

// newAlpacaBrokerClient creates a BrokerClient for the given credentials and
// endpoints. baseURL targets the trading API (paper or live); dataURL the
// market-data API, defaulted by the SDK when empty. A hard 30s request
// timeout bounds every trading call.
func newAlpacaBrokerClient(apiKey, apiSecret, baseURL, dataURL string) *alpacaBrokerClient {
	tradingOpts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}

	dataOpts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}

	return &alpacaBrokerClient{
		trading: alpaca.NewClient(tradingOpts),
		data:    marketdata.NewClient(dataOpts),
	}
}

func (c *alpacaBrokerClient) GetAccount() (*alpaca.Account, error) {
	return c.trading.GetAccount()
}

func (c *alpacaBrokerClient) GetLatestQuotes(symbols []string) (map[string]marketdata.Quote, error) {
	return c.data.GetLatestQuotes(symbols, marketdata.GetLatestQuoteRequest{})
}

func (c *alpacaBrokerClient) GetPositions() ([]alpaca.Position, error) {
	return c.trading.GetPositions()
}

func (c *alpacaBrokerClient) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	return c.trading.PlaceOrder(req)
}
