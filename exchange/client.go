package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sig-0/feemeta/storage/types"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = time.Second * 30

	// DefaultRequestsPerSecond is the default request rate towards a single exchange
	DefaultRequestsPerSecond = 5

	// maxErrorBody is the amount of a failed response body kept for the error
	maxErrorBody = 512
)

// Client is a rate-limited JSON HTTP client for a single exchange
type Client struct {
	client   *http.Client
	limiter  *rate.Limiter
	exchange types.Exchange
}

// NewClient creates a new exchange client, with the given per-request timeout
// and request rate (requests per second)
func NewClient(exchange types.Exchange, timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		exchange: exchange,
	}
}

// GetJSON executes a GET request, and decodes the JSON response into out.
// The call name is used for error reporting
func (c *Client) GetJSON(
	ctx context.Context,
	call string,
	url string,
	header http.Header,
	out any,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return Unavailable(c.exchange, call, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Unavailable(c.exchange, call, fmt.Errorf("unable to create request: %w", err))
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unavailable(c.exchange, call, fmt.Errorf("unable to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return Unavailable(
			c.exchange,
			call,
			fmt.Errorf("invalid status code %d: %s", resp.StatusCode, body),
		)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Protocol(c.exchange, call, fmt.Errorf("unable to decode response: %w", err))
	}

	return nil
}

// Sign returns the hex encoded HMAC-SHA256 signature of the payload
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
