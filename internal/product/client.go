package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nutriscan/nutriscan/internal/shared"
)

const (
	// OpenFoodFactsURL is the upstream product database.
	OpenFoodFactsURL = "https://world.openfoodfacts.net"
	// DefaultUserAgent identifies the service to Open Food Facts.
	DefaultUserAgent = "NutriScan/1.0 (+https://github.com/nutriscan/nutriscan)"

	defaultUpstreamTimeout = 10 * time.Second
	maxUpstreamBody        = 4 << 20
)

// Upstream fetches raw product records by barcode.
type Upstream interface {
	Fetch(ctx context.Context, barcode string) (RawProduct, error)
}

// Client wraps interactions with the Open Food Facts v2 API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout bounds every upstream call.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a new client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   OpenFoodFactsURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultUpstreamTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productEnvelope struct {
	Status  int         `json:"status"`
	Product *RawProduct `json:"product"`
}

// Fetch retrieves the raw record for barcode. A zero status or HTTP 404 maps
// to shared.ErrNotFound, every other failure to shared.ErrUpstreamUnavailable.
func (c *Client) Fetch(ctx context.Context, barcode string) (RawProduct, error) {
	endpoint := fmt.Sprintf("%s/api/v2/product/%s", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawProduct{}, fmt.Errorf("%w: build request: %v", shared.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawProduct{}, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return RawProduct{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, barcode)
	}
	if resp.StatusCode >= 400 {
		return RawProduct{}, fmt.Errorf("%w: upstream returned status %d", shared.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope productEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(&envelope); err != nil {
		return RawProduct{}, fmt.Errorf("%w: decode response: %v", shared.ErrUpstreamUnavailable, err)
	}
	if envelope.Status == 0 || envelope.Product == nil {
		return RawProduct{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, barcode)
	}
	return *envelope.Product, nil
}
