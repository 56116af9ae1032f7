package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

const (
	// Por defecto 5 lecturas/s: la resolución lee una vez por mercado.
	defaultRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el price feed HTTP con rate limiting y retries.
//
// GET {base}/feeds/{feed} devuelve:
//
//	{"value": "150.25", "last_update": 1767225600}
//
// value acepta string o número; last_update son segundos unix.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client contra base. ratePerSec <= 0 usa el default.
func NewClient(base string, ratePerSec float64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    strings.TrimRight(base, "/"),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

type readingResponse struct {
	Value      decimal.Decimal `json:"value"`
	LastUpdate int64           `json:"last_update"`
}

// Read implementa ports.PriceFeed.
func (c *Client) Read(ctx context.Context, feed solana.PublicKey) (domain.FeedReading, error) {
	url := fmt.Sprintf("%s/feeds/%s", c.base, feed)

	var out readingResponse
	if err := c.get(ctx, url, &out); err != nil {
		return domain.FeedReading{}, fmt.Errorf("feed.Read %s: %w", feed, err)
	}

	r := domain.FeedReading{Value: out.Value}
	if out.LastUpdate > 0 {
		r.LastUpdate = time.Unix(out.LastUpdate, 0).UTC()
	}
	slog.Debug("feed: reading", "feed", feed, "value", r.Value.String(), "last_update", r.LastUpdate)
	return r, nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("feed: rate limited", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return domain.ErrNotFound
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

var _ ports.PriceFeed = (*Client)(nil)
