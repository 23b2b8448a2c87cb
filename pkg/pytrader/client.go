// Package pytrader provides a Go SDK for the pytrader-server HTTP API.
package pytrader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pytrader/internal/domain"
)

// APIError is a non-2xx response from the server. Message is the server's
// normalized error text; RawError carries the upstream broker message when
// one exists.
type APIError struct {
	StatusCode int
	Message    string
	RawError   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Client provides a Go SDK for interacting with the pytrader-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new pytrader API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health reports server readiness.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var resp struct {
		Status string `json:"status"`
		Ready  bool   `json:"ready"`
	}
	if err := c.get(ctx, "/", &resp); err != nil {
		return false, err
	}
	return resp.Ready, nil
}

// GetAccount retrieves the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (domain.AccountInfo, error) {
	var info domain.AccountInfo
	if err := c.get(ctx, "/account", &info); err != nil {
		return domain.AccountInfo{}, err
	}
	return info, nil
}

// GetPositions retrieves all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	var resp struct {
		Positions []domain.Position `json:"positions"`
	}
	if err := c.get(ctx, "/positions", &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// GetQuotes retrieves the latest quote per symbol. Symbols the server has no
// data for are absent from the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	var resp struct {
		Quotes map[string]domain.Quote `json:"quotes"`
	}
	path := "/quotes?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Quotes, nil
}

// SubmitOrder submits a new order.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("encoding order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return domain.OrderResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var res domain.OrderResult
	if err := c.do(httpReq, &res); err != nil {
		return domain.OrderResult{}, err
	}
	return res, nil
}

// ListOrders retrieves up to limit journal entries, most recent first. A
// limit of 0 uses the server default.
func (c *Client) ListOrders(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	path := "/orders"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Orders []domain.OrderResult `json:"orders"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// do executes the request and decodes the JSON body into out. Non-2xx
// responses decode into an *APIError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error    string `json:"error"`
			RawError string `json:"raw_error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Error
			apiErr.RawError = body.RawError
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
