package whttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// Header is a single request header added on top of the common set.
type Header struct {
	Name  string
	Value string
}

// Response is the raw result of a retrieval call. The transport layer has
// no idea what the body means.
type Response struct {
	StatusCode int
	BodyString string
	Headers    http.Header
}

// NetworkError wraps a connection-level failure, including a request that
// still failed after all retry attempts.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitedError means the endpoint kept answering 429 until the retry
// budget ran out.
type RateLimitedError struct {
	URL string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.URL)
}

// HTTPError is any other non-2xx status. These are never retried.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Config is the retry policy for a Client. It is passed in at construction
// instead of living in process-wide state so two clients can disagree.
type Config struct {
	MaxAttempts          int
	BaseDelay            time.Duration
	RetryableStatusCodes []int
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:          3,
		BaseDelay:            500 * time.Millisecond,
		RetryableStatusCodes: []int{http.StatusTooManyRequests},
	}
}

// Client performs outbound GETs with bounded automatic retry for transient
// failures. Every request carries a fixed browser User-Agent.
type Client struct {
	retry *retryablehttp.Client
}

func NewClient(cfg Config) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.RetryableStatusCodes == nil {
		cfg.RetryableStatusCodes = DefaultConfig().RetryableStatusCodes
	}

	rc := retryablehttp.NewClient()
	rc.Logger = stdlog.New(io.Discard, "", 0)
	rc.RetryMax = cfg.MaxAttempts - 1
	rc.RetryWaitMin = cfg.BaseDelay
	rc.RetryWaitMax = cfg.BaseDelay * 16
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		for _, code := range cfg.RetryableStatusCodes {
			if resp.StatusCode == code {
				return true, nil
			}
		}
		return false, nil
	}
	// Passthrough so an exhausted 429 still hands us the final response
	// instead of a generic "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{retry: rc}
}

// SetProxy routes all requests of this client through an HTTP proxy.
// Useful for debugging what a retailer actually sends back.
func (c *Client) SetProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %v", err)
	}
	c.retry.HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return nil
}

// Fetch GETs rawURL and classifies the outcome. A non-2xx status returns
// both the response and a typed error, so callers that care can still
// inspect the body.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers []Header) (*Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Cache-Control", "no-transform")
	for _, h := range headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	res := &Response{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
		Headers:    resp.Header,
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return res, &RateLimitedError{URL: rawURL}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return res, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return res, nil
}

// Title extracts the HTML <title> of a response body, if any. Handy for
// logging what a blocked or captcha page calls itself.
func Title(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}
	title, _ := traverse(doc)
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", ""))
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}
