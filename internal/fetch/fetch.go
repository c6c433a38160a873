package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/sitesum/internal/cache"
)

// DefaultTimeout bounds a single page request when PerRequestTimeout is unset.
const DefaultTimeout = 8 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

// Response is the outcome of a request that reached the server. Any status
// code is returned here; deciding what a non-200 means is up to the caller.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Error reports a transport-level failure: DNS, refused connection, timeout,
// TLS, unsupported scheme or a broken redirect chain.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Client issues single GET requests with a per-request timeout. It never
// retries.
type Client struct {
	HTTPClient *http.Client
	// UserAgent is sent only when non-empty; otherwise the net/http default is used.
	UserAgent string
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// MaxBodyBytes caps the body read. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Optional on-disk cache for HTTP GET bodies and validators.
	Cache *cache.HTTPCache
	// If true, skip conditional headers but still save fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 10.
	RedirectMaxHops int
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) timeout() time.Duration {
	if c.PerRequestTimeout > 0 {
		return c.PerRequestTimeout
	}
	return DefaultTimeout
}

// Fetch performs one GET for rawURL. A non-nil error is always an *Error.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Response, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	resp, newEtag, newLastMod, err := c.do(ctx, rawURL, etag, lastMod)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Err: err}
	}
	if c.Cache != nil {
		switch resp.StatusCode {
		case http.StatusOK:
			_ = c.Cache.Save(ctx, rawURL, resp.ContentType, newEtag, newLastMod, resp.Body)
		case http.StatusNotModified:
			if cached, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
				resp.StatusCode = http.StatusOK
				resp.Body = cached
				if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
					resp.ContentType = meta.ContentType
				}
			}
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, rawURL, etag, lastMod string) (Response, string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, "", "", fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return Response{}, "", "", fmt.Errorf("unsupported URL scheme: %q", req.URL.Scheme)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Response{}, "", "", err
	}
	defer resp.Body.Close()

	out := Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused; the body is not needed.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return out, "", "", nil
	}
	body, err := readBody(resp.Body, out.ContentType, c.maxBody())
	if err != nil {
		return Response{}, "", "", fmt.Errorf("read body: %w", err)
	}
	out.Body = body
	return out, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func (c *Client) maxBody() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// readBody decodes the body to UTF-8 using the declared or sniffed charset.
func readBody(r io.Reader, contentType string, limit int64) ([]byte, error) {
	limited := io.LimitReader(r, limit)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		// Empty body or a failed preview read; whatever is left is returned as-is.
		return io.ReadAll(limited)
	}
	return io.ReadAll(decoded)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 10
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
