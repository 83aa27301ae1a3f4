// Package fetchkit fetches one URL over HTTP(S) and parses the response into
// a queryable document handle. One attempt per call: no retries, no caching.
package fetchkit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds a fetch when no timeout option is given.
const DefaultTimeout = 20 * time.Second

// defaultMaxBody caps response bodies to prevent unbounded memory use.
const defaultMaxBody = 10 << 20

// Fetcher performs single GET requests with browser-like headers and an
// optional Chrome TLS fingerprint.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBody     int64
	impersonate bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds the whole fetch, connection through body read.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithUserAgent overrides the default Chrome user agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithHTTPClient substitutes the whole HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.client = hc }
}

// WithImpersonation toggles the Chrome TLS fingerprint transport.
func WithImpersonation(enabled bool) Option {
	return func(f *Fetcher) { f.impersonate = enabled }
}

// WithMaxBodySize overrides the response body cap in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) { f.maxBody = n }
}

// New creates a Fetcher. Construction fails only when the TLS fingerprint
// spec cannot be generated, which means the fetching capability is
// unavailable entirely.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		userAgent:   defaultUserAgent,
		maxBody:     defaultMaxBody,
		impersonate: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		var transport http.RoundTripper
		if f.impersonate {
			t, err := newChromeTransport()
			if err != nil {
				return nil, err
			}
			transport = t
		}
		f.client = &http.Client{
			Timeout:   f.timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return eris.New("fetch: too many redirects")
				}
				return nil
			},
		}
	}

	return f, nil
}

// Get fetches one URL and returns the parsed document handle. Exactly one
// attempt; the configured timeout bounds the whole call. Status >= 400 is
// an error.
func (f *Fetcher) Get(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetch: status %d for %s", resp.StatusCode, targetURL)
	}

	decoded, err := decodeToUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse html")
	}

	zap.L().Debug("fetched page",
		zap.String("url", targetURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Page{url: targetURL, statusCode: resp.StatusCode, doc: doc}, nil
}
