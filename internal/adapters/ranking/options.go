package ranking

import "net/http"

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}
func WithRegion(r string) Option {
	return func(c *Client) { c.region = r }
}
func WithPlatform(p string) Option {
	return func(c *Client) { c.platform = p }
}
