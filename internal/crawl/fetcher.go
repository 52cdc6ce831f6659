package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxRedirects    = 5
	maxResponseBody = 10 << 20
	userAgent       = "InsightRouterCrawler/1.0"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// Response is a fetched page. Body is capped at 10 MB and must be closed.
type Response struct {
	Body        io.ReadCloser
	StatusCode  int
	ContentType string
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

type cappedBody struct {
	io.Reader
	io.Closer
}

// HTTPFetcher implements Fetcher over HTTP, refusing to connect to private
// or reserved addresses.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher with a 10s timeout and at most five
// redirects, each of which must stay on http or https.
func NewHTTPFetcher(concurrency int) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext:         newDialer(publicOnly).DialContext,
				MaxConnsPerHost:     concurrency,
				MaxIdleConnsPerHost: concurrency,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: checkRedirect,
		},
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch implements Fetcher. Error statuses are returned as responses, not errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req) //nolint:bodyclose // closed by the caller through Response.Body
	if err != nil {
		return nil, err
	}

	return &Response{
		Body:        &cappedBody{Reader: io.LimitReader(resp.Body, maxResponseBody), Closer: resp.Body},
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
