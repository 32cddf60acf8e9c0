package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beergame/supplytwin/chain"
)

// DefaultTimeout bounds a single client request.
const DefaultTimeout = 10 * time.Second

// Client calls the ERP HTTP API. It satisfies twin.PeriodSink.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL, e.g.
// "http://localhost:8000". A nil httpClient uses one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("erp: invalid base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/") + "/api/v1", http: httpClient}, nil
}

// Product fetches a catalogue entry.
func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p)
	return p, err
}

// Suppliers fetches the suppliers of a product.
func (c *Client) Suppliers(ctx context.Context, id string) ([]Supplier, error) {
	var s []Supplier
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id)+"/suppliers", nil, &s)
	return s, err
}

// HistoricalData fetches every recorded period, oldest first.
func (c *Client) HistoricalData(ctx context.Context) ([]HistoricalRecord, error) {
	var h []HistoricalRecord
	err := c.do(ctx, http.MethodGet, "/history", nil, &h)
	return h, err
}

// RecordPeriod files st with the ERP.
func (c *Client) RecordPeriod(ctx context.Context, st chain.ChainStatus) error {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodPost, "/history", st, &resp); err != nil {
		return err
	}
	if resp.Status != statusSuccess {
		return fmt.Errorf("erp: record period %d: %s", st.CurrentStep, resp.Message)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("erp: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("erp: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("erp: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var sr StatusResponse
		_ = json.NewDecoder(resp.Body).Decode(&sr)
		statusErr := fmt.Errorf("erp: %s %s: status %d: %s", method, path, resp.StatusCode, sr.Message)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", statusErr, chain.ErrNotFound)
		}
		return statusErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("erp: decode %s response: %w", path, err)
	}
	return nil
}
