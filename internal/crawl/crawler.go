// Package crawl builds an audit dataset by fetching pages directly, for
// deployments that have no crawl export on disk.
package crawl

import (
	"context"
	"log/slog"
	"mime"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Bahjat/insight-router/internal/seo"
)

const maxPages = 1000

// Extra export columns the crawler fills in besides the ones seo reads.
const (
	ColIndexability = "Indexability"
	ColMetaRobots   = "Meta Robots 1"
	ColH1           = "H1-1"
	ColCanonical    = "Canonical Link Element 1"
)

var columns = []string{
	seo.ColAddress,
	seo.ColContentType,
	seo.ColStatusCode,
	ColIndexability,
	seo.ColTitle,
	seo.ColMeta,
	ColMetaRobots,
	ColH1,
	ColCanonical,
}

// Page is what the crawler learned about one URL. StatusCode is 0 when the
// page could not be fetched.
type Page struct {
	Address     string
	StatusCode  int
	ContentType string
	Tags        PageTags
}

// Indexable reports whether search engines may index the page.
func (p Page) Indexable() bool {
	return p.StatusCode == 200 && !strings.Contains(strings.ToLower(p.Tags.MetaRobots), "noindex")
}

func (p Page) row() []string {
	indexability := "Non-Indexable"
	if p.Indexable() {
		indexability = "Indexable"
	}
	return []string{
		p.Address,
		p.ContentType,
		strconv.Itoa(p.StatusCode),
		indexability,
		p.Tags.Title,
		p.Tags.MetaDescription,
		p.Tags.MetaRobots,
		p.Tags.H1,
		p.Tags.Canonical,
	}
}

// Crawler fetches a fixed list of URLs with a bounded worker pool.
type Crawler struct {
	fetcher     Fetcher
	concurrency int
	logger      *slog.Logger
}

// New returns a Crawler. concurrency is the worker pool size.
func New(fetcher Fetcher, concurrency int, logger *slog.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, concurrency: max(concurrency, 1), logger: logger}
}

// Crawl visits at most 1000 of urls and returns one dataset row per valid
// http(s) URL, in input order. Invalid URLs are logged and skipped.
func (c *Crawler) Crawl(ctx context.Context, urls []string) *seo.Dataset {
	targets := make([]*url.URL, 0, min(len(urls), maxPages))
	for _, raw := range urls {
		if len(targets) == maxPages {
			c.logger.Warn("crawl list truncated", "limit", maxPages, "requested", len(urls))
			break
		}
		u, ok := crawlable(raw)
		if !ok {
			c.logger.Warn("skipping invalid crawl url", "url", raw)
			continue
		}
		targets = append(targets, u)
	}

	pages := make([]Page, len(targets))
	jobs := make(chan int, len(targets))
	for i := range targets {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(len(targets), c.concurrency) {
		wg.Go(func() {
			for i := range jobs {
				pages[i] = c.inspect(ctx, targets[i])
			}
		})
	}
	wg.Wait()

	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = p.row()
	}
	c.logger.Info("crawl complete", "pages", len(rows))
	return seo.NewDataset(columns, rows)
}

func crawlable(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, u.Scheme == "http" || u.Scheme == "https"
}

// inspect fetches one page and parses its tags when it is HTML. Failures are
// recorded on the Page rather than returned.
func (c *Crawler) inspect(ctx context.Context, u *url.URL) Page {
	page := Page{Address: u.String()}

	resp, err := c.fetcher.Fetch(ctx, page.Address)
	if err != nil {
		c.logger.Warn("crawl fetch failed", "url", page.Address, "error", err)
		return page
	}
	defer func() { _ = resp.Body.Close() }()

	page.StatusCode = resp.StatusCode
	page.ContentType = resp.ContentType

	if mediaType, _, err := mime.ParseMediaType(resp.ContentType); err != nil || mediaType != "text/html" {
		return page
	}

	tags, err := ParseTags(resp.Body, u)
	if err != nil {
		c.logger.Warn("crawl parse failed", "url", page.Address, "error", err)
		return page
	}
	page.Tags = tags
	return page
}
