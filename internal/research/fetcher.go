package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mpetrov/draftgate/internal/worker"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
)

// Fetcher retrieves source pages for research enrichment. Fetches are
// rate-limited per host and honor robots.txt, including crawl-delay.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int
	limiter    *worker.Limiter

	robotsMu    sync.RWMutex
	robotsCache map[string]*robotstxt.RobotsData
}

// NewFetcher creates a fetcher with the given politeness settings.
func NewFetcher(userAgent string, requestsPerSec float64, maxBytes int) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 4000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:   userAgent,
		maxBytes:    maxBytes,
		limiter:     worker.NewLimiter(requestsPerSec, 2),
		robotsCache: make(map[string]*robotstxt.RobotsData),
	}
}

// PageText fetches a page and returns its visible text, truncated to
// the configured byte limit. Disallowed URLs return an error rather
// than silently empty text.
func (f *Fetcher) PageText(ctx context.Context, rawURL string) (string, error) {
	allowed, crawlDelay, err := f.canFetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", fmt.Errorf("disallowed by robots.txt")
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)*4))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := visibleText(string(body))
	if len(text) > f.maxBytes {
		text = text[:f.maxBytes]
	}
	return text, nil
}

// canFetch checks robots.txt for the URL. An unreachable robots.txt
// allows the fetch by default.
func (f *Fetcher) canFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	data, err := f.robotsData(ctx, parsed)
	if err != nil {
		return true, 0, nil
	}

	allowed := data.TestAgent(parsed.Path, f.userAgent)

	crawlDelay := time.Duration(0)
	if group := data.FindGroup(f.userAgent); group != nil {
		crawlDelay = group.CrawlDelay
	}
	return allowed, crawlDelay, nil
}

func (f *Fetcher) robotsData(ctx context.Context, pageURL *url.URL) (*robotstxt.RobotsData, error) {
	host := pageURL.Host

	f.robotsMu.RLock()
	data, exists := f.robotsCache[host]
	f.robotsMu.RUnlock()
	if exists {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", pageURL.Scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	f.robotsMu.Lock()
	f.robotsCache[host] = data
	f.robotsMu.Unlock()
	return data, nil
}

// visibleText extracts text nodes from HTML, skipping scripts/styles.
func visibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String())
}
