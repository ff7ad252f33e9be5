// Package groupon implements the upstream commerce API client using gocolly.
package groupon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/groupwatch/dealstats/internal/deals"
)

// Config controls the upstream endpoints and collector behavior.
type Config struct {
	BaseURL    string
	APIVersion string
	ClientID   string
	UserAgent  string
	Timeout    time.Duration
}

// Client fetches division and deal listings from the upstream API.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Client.
func New(cfg Config) *Client {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Client{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Divisions fetches the upstream division list and returns the division IDs.
func (c *Client) Divisions(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.endpoint("divisions", nil))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Divisions []struct {
			ID string `json:"id"`
		} `json:"divisions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode divisions (%v): %w", err, deals.ErrFetch)
	}
	ids := make([]string, 0, len(payload.Divisions))
	for _, div := range payload.Divisions {
		ids = append(ids, div.ID)
	}
	return ids, nil
}

// Deals fetches the deal list for one division.
func (c *Client) Deals(ctx context.Context, divisionID string) ([]deals.RawDeal, error) {
	body, err := c.get(ctx, c.endpoint("deals", url.Values{"division": {divisionID}}))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Deals []deals.RawDeal `json:"deals"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode deals for %s (%v): %w", divisionID, err, deals.ErrFetch)
	}
	return payload.Deals, nil
}

func (c *Client) endpoint(resource string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.cfg.ClientID != "" {
		params.Set("client_id", c.cfg.ClientID)
	}
	return fmt.Sprintf("%s/%s/%s?%s", c.cfg.BaseURL, c.cfg.APIVersion, resource, params.Encode())
}

// get executes a single HTTP GET through a cloned collector. Any transport
// failure or non-2xx status surfaces as deals.ErrFetch.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch %s (%v): %w", rawURL, err, deals.ErrFetch)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s (%v): %w", rawURL, fetchErr, deals.ErrFetch)
		}
	}
	return body, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
