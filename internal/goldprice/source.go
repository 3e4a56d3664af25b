package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const responseBodyReadLimit int64 = 4096

var errSourceURLRequired = errors.New("gold price source url is required")

// Quote is a single per-gram price observation from the upstream feed,
// denominated in toman at the feed's base karat.
type Quote struct {
	PricePerGram decimal.Decimal
	SampledAt    time.Time
}

// Source produces the latest market quote.
type Source interface {
	Fetch(ctx context.Context) (Quote, error)
}

// HTTPSource polls a JSON price feed over HTTP.
type HTTPSource struct {
	httpClient *http.Client
	url        string
}

// SourceOption configures optional source behavior.
type SourceOption func(*HTTPSource)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) SourceOption {
	return func(s *HTTPSource) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// NewHTTPSource builds a price source polling the given feed URL.
func NewHTTPSource(url string, opts ...SourceOption) (*HTTPSource, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, errSourceURLRequired
	}

	source := &HTTPSource{
		url:        trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(source)
		}
	}
	return source, nil
}

type feedResponse struct {
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	SampledAt    *time.Time      `json:"sampled_at,omitempty"`
}

// Fetch requests the feed once, retrying transient failures with a short
// backoff before giving up.
func (s *HTTPSource) Fetch(ctx context.Context) (Quote, error) {
	var quote Quote
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, fetchErr := s.fetchOnce(ctx)
		if fetchErr != nil {
			return retry.RetryableError(fetchErr)
		}
		quote = fetched
		return nil
	})
	if err != nil {
		return Quote{}, err
	}
	return quote, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch gold price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
		return Quote{}, fmt.Errorf("gold price feed returned status %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("decode gold price payload: %w", err)
	}
	if !payload.PricePerGram.IsPositive() {
		return Quote{}, fmt.Errorf("gold price feed returned non-positive price %s", payload.PricePerGram)
	}

	sampledAt := time.Now().UTC()
	if payload.SampledAt != nil {
		sampledAt = payload.SampledAt.UTC()
	}
	return Quote{PricePerGram: payload.PricePerGram, SampledAt: sampledAt}, nil
}
