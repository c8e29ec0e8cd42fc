package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TriadNews/internal/domain"
)

const minScannedTitleLen = 10

// boilerplateSelector removes elements that never contain teaser links.
const boilerplateSelector = "script, style, nav, footer, header, aside, noscript, iframe"

// teaserLinkSelectors are scanned in priority order; each pattern marks
// anchors that typically wrap an article teaser. Extend the list to
// support new site layouts without touching the scan flow.
var teaserLinkSelectors = []string{
	"article a",
	".card a",
	".article_teaser a",
	"[class*='article'] a",
}

// HomepageStrategy collects items by scanning a source's homepage for
// article-like links. Used for sources without a feed endpoint; scanned
// items carry the fetch time as their publish date.
type HomepageStrategy struct {
	client *http.Client
}

// NewHomepageStrategy wires an HTTP client; a nil client gets a 15s timeout default.
func NewHomepageStrategy(client *http.Client) *HomepageStrategy {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HomepageStrategy{client: client}
}

// Name identifies the strategy inside the registry.
func (s *HomepageStrategy) Name() string {
	return "homepage"
}

// Fetch downloads the homepage and extracts deduplicated teaser links.
func (s *HomepageStrategy) Fetch(ctx context.Context, source domain.Source) ([]domain.FeedItem, error) {
	if source.HomepageURL == "" {
		return nil, fmt.Errorf("source %s has no homepage url", source.ID)
	}

	doc, err := s.fetchDocument(ctx, source.HomepageURL)
	if err != nil {
		return nil, err
	}

	doc.Find(boilerplateSelector).Remove()

	now := time.Now().UTC().Format(time.RFC3339)
	seen := map[string]struct{}{}
	var items []domain.FeedItem

	for _, selector := range teaserLinkSelectors {
		doc.Find(selector).EachWithBreak(func(i int, anchor *goquery.Selection) bool {
			if len(items) >= maxItemsPerRun {
				return false
			}

			href, ok := anchor.Attr("href")
			if !ok || href == "" {
				return true
			}
			if _, dup := seen[href]; dup {
				return true
			}

			title := strings.TrimSpace(anchor.Find("h1, h2, h3, h4, .title").Text())
			if title == "" {
				title = strings.TrimSpace(anchor.Text())
			}
			// short anchor text is navigation noise, not a headline
			if len([]rune(title)) < minScannedTitleLen {
				return true
			}

			seen[href] = struct{}{}

			summary := anchor.Closest("article, .card, [class*='article']").Find("p").First().Text()

			items = append(items, domain.FeedItem{
				Title:   title,
				Link:    absoluteURL(source.HomepageURL, href),
				Summary: strings.TrimSpace(summary),
				Source:  source.ID,
				PubDate: now,
			})

			return true
		})

		if len(items) >= maxItemsPerRun {
			break
		}
	}

	return items, nil
}

func (s *HomepageStrategy) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request homepage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("homepage returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	return doc, nil
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(base, "/") + href
}
