// Package portal implements the HTTP client for the dados.gov.br public
// search API and the partition-key enumerators built on top of it.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/harvest"
)

// DefaultBaseURL is the public dataset search endpoint.
const DefaultBaseURL = "https://dados.gov.br/api/publico/conjuntos-dados/buscar"

// ClientConfig controls the search client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	// RequestsPerSecond paces requests to the portal; <= 0 disables pacing.
	RequestsPerSecond float64
}

// Client issues license-scoped search queries against the portal. Request
// timeouts are applied by callers through the context; the client itself
// carries no deadline so the retry layer stays in control.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	throttle   *Throttle
	logger     *zap.Logger
}

// NewClient builds a Client with a pooled transport.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var throttle *Throttle
	if cfg.RequestsPerSecond > 0 {
		throttle = NewThrottle(cfg.RequestsPerSecond, 1)
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Transport: newTransport()},
		throttle:   throttle,
		logger:     logger,
	}, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
	}
}

// searchEnvelope mirrors the portal's response shape. TotalRegistros is the
// catalog-wide total for the query, not per-window availability.
type searchEnvelope struct {
	Total   int               `json:"totalRegistros"`
	Records []json.RawMessage `json:"registros"`
}

// recordKey extracts the stable dataset identity from a raw document.
type recordKey struct {
	ID string `json:"id"`
}

// Search requests one page of results scoped to the given license key. An
// empty key queries the unfiltered catalog.
func (c *Client) Search(ctx context.Context, key catalog.PartitionKey, offset, limit int) (harvest.SearchPage, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return harvest.SearchPage{}, err
	}
	req, err := c.newRequest(ctx, key, offset, limit)
	if err != nil {
		return harvest.SearchPage{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return harvest.SearchPage{}, fmt.Errorf("search request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return harvest.SearchPage{}, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return harvest.SearchPage{}, fmt.Errorf("decode search response: %w", err)
	}

	page := harvest.SearchPage{Total: envelope.Total}
	page.Records = make([]catalog.DatasetRecord, 0, len(envelope.Records))
	for _, raw := range envelope.Records {
		var keyDoc recordKey
		if err := json.Unmarshal(raw, &keyDoc); err != nil {
			c.logger.Debug("skipping undecodable record", zap.Error(err))
			continue
		}
		page.Records = append(page.Records, catalog.DatasetRecord{
			ID:  catalog.DatasetID(keyDoc.ID),
			Raw: raw,
		})
	}
	return page, nil
}

func (c *Client) newRequest(ctx context.Context, key catalog.PartitionKey, offset, limit int) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("tamanhoPagina", strconv.Itoa(limit))
	q.Set("dadosAbertos", "true")
	if key != "" {
		q.Set("licenca", string(key))
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}
