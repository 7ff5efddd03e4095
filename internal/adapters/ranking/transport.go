package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

const maxRetryAfter = 30 * time.Second

type Client struct {
	apiKey   string
	http     *http.Client
	baseURL  string
	region   string
	platform string
}

func New(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		region:   "emea",
		platform: "uplay",
	}
	for _, o := range opts {
		o(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// doJSON: arma la URL, agrega Authorization, mapea 404 y reintenta una vez en 429.
func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, out any) error {
	return c.do(ctx, method, path, q, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any, retry bool) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("ranking request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ranking http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if wait, ok := retryAfter(res.Header.Get("Retry-After")); ok {
			_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return ctx.Err()
			}
			return c.do(ctx, method, path, q, out, false)
		}
	}

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("ranking %s: %w", path, domain.ErrNotFound)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("ranking decode %s: %w", path, err)
	}
	return nil
}

// retryAfter acepta segundos enteros (0 = reintento inmediato), con tope.
func retryAfter(h string) (time.Duration, bool) {
	if h == "" {
		return 0, false
	}
	sec, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || sec < 0 {
		return 0, false
	}
	return min(time.Duration(sec)*time.Second, maxRetryAfter), true
}
