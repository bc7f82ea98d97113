package census

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/couchcryptid/county-data-etl/internal/observability"
)

// saipeVariables are the SAIPE time-series variables requested per county.
const saipeVariables = "SAEMHI_PT,SAEPOVRTALL_PT,NAME"

// maxBodyBytes bounds the response read.
const maxBodyBytes = 16 << 20

// Client fetches county median income and poverty rates from the census
// SAIPE time-series API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	maxBody    int64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a census SAIPE client. An empty apiKey sends anonymous
// requests, which the API rate-limits but accepts.
func NewClient(baseURL, apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		maxBody: maxBodyBytes,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchIncomePoverty returns the raw response body for every county in the
// given year. Transport failures and non-200 answers wrap
// domain.ErrSourceUnavailable.
func (c *Client) FetchIncomePoverty(ctx context.Context, year int) ([]byte, error) {
	params := url.Values{
		"get":  {saipeVariables},
		"for":  {"county:*"},
		"in":   {"state:*"},
		"time": {strconv.Itoa(year)},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	start := time.Now()
	body, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.CensusAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CensusRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.CensusRequests.WithLabelValues("success").Inc()

	c.logger.Debug("census response received", "year", year, "bytes", len(body))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: census request: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read census response: %v", domain.ErrSourceUnavailable, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: census response exceeds %d bytes", domain.ErrSourceUnavailable, c.maxBody)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: census API error: status %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
