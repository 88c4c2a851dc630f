package finnhub

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/domain/models"
	"stockpulse/internal/service/ratelimit"
	xhttp "stockpulse/pkg/http"
)

// RestClient implements a QuoteSource backed by the Finnhub REST quote
// endpoint.
type RestClient struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rpm     float64
}

// NewRestClient creates a Finnhub REST quote client. Requests are held to
// maxPerMinute to stay inside the vendor's free-tier limit.
func NewRestClient(apiKey, baseURL string, timeout time.Duration, maxPerMinute int) *RestClient {
	return &RestClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
		rpm:     float64(maxPerMinute),
	}
}

// Fetch retrieves the quote for one symbol.
func (c *RestClient) Fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx, "quote", c.rpm, c.rpm/60); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := &models.Quote{}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, q)
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	return q, nil
}
