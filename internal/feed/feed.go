// Package feed fetches breaking-news headlines from RSS sources. Fetches
// run with a short explicit timeout and results are cached for ten minutes
// to bound repeated blocking calls.
package feed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/prostockhq/prostock/internal/marketdata"
	"github.com/prostockhq/prostock/pkg/models"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 5 * time.Second

// DefaultTTL is how long parsed feeds stay cached.
const DefaultTTL = 600 * time.Second

// DefaultItemLimit caps the headlines taken per feed.
const DefaultItemLimit = 5

// DefaultSources lists the breaking-news feeds shown on the home board.
var DefaultSources = []string{
	"https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664",
	"http://rss.cnn.com/rss/money_latest.rss",
	"http://feeds.bbci.co.uk/news/business/rss.xml",
}

// Fetcher retrieves and caches RSS headlines.
type Fetcher struct {
	sources []string
	cache   *marketdata.Cache
	parser  *gofeed.Parser
	timeout time.Duration
	ttl     time.Duration
	limit   int
	now     func() time.Time
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithSources replaces the default source list.
func WithSources(sources []string) Option {
	return func(f *Fetcher) {
		if len(sources) > 0 {
			f.sources = sources
		}
	}
}

// WithTimeout overrides the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithTTL overrides how long parsed feeds stay cached.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.ttl = d
		}
	}
}

// WithClock injects the cache clock, used in tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// New creates a Fetcher with the default sources.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		sources: DefaultSources,
		parser:  gofeed.NewParser(),
		timeout: DefaultTimeout,
		ttl:     DefaultTTL,
		limit:   DefaultItemLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.cache = marketdata.NewCacheWithClock(f.ttl, f.now)
	f.parser.Client = &http.Client{Timeout: f.timeout}
	return f
}

// Fetch returns the top headlines for one feed URL. Failures yield an empty
// slice, never an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) []models.FeedItem {
	cacheKey := "feed:" + url
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]models.FeedItem)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	items := f.fetchRSS(fetchCtx, url)
	f.cache.Set(cacheKey, items)
	return items
}

// FetchAll returns headlines from every configured source, in source order.
func (f *Fetcher) FetchAll(ctx context.Context) []models.FeedItem {
	var all []models.FeedItem
	for _, src := range f.sources {
		all = append(all, f.Fetch(ctx, src)...)
	}
	return all
}

// Sources returns the configured feed URLs.
func (f *Fetcher) Sources() []string { return f.sources }

func (f *Fetcher) fetchRSS(ctx context.Context, url string) []models.FeedItem {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return []models.FeedItem{}
	}

	items := make([]models.FeedItem, 0, f.limit)
	for _, item := range parsed.Items {
		if len(items) >= f.limit {
			break
		}
		title := strings.TrimSpace(cleanHTML(item.Title))
		if title == "" {
			continue
		}
		items = append(items, models.FeedItem{
			Title: title,
			Link:  strings.TrimSpace(item.Link),
		})
	}
	return items
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// Headlines extracts just the titles, for sentiment scoring.
func Headlines(items []models.FeedItem) []string {
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	return titles
}
