package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"TriadNews/internal/domain"
)

const (
	userAgent      = "TriadNews/1.0"
	maxItemsPerRun = 30
	maxSummaryLen  = 500
)

// RSSStrategy collects items from a source's structured feed endpoint.
type RSSStrategy struct {
	parser *gofeed.Parser
}

// NewRSSStrategy wires a gofeed parser with the service user agent.
func NewRSSStrategy() *RSSStrategy {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSSStrategy{parser: parser}
}

// Name identifies the strategy inside the registry.
func (s *RSSStrategy) Name() string {
	return "rss"
}

// Fetch parses the feed document and normalizes its newest entries.
func (s *RSSStrategy) Fetch(ctx context.Context, source domain.Source) ([]domain.FeedItem, error) {
	if source.FeedURL == "" {
		return nil, fmt.Errorf("source %s has no feed endpoint", source.ID)
	}

	parsed, err := s.parser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.FeedURL, err)
	}

	entries := parsed.Items
	if len(entries) > maxItemsPerRun {
		entries = entries[:maxItemsPerRun]
	}

	items := make([]domain.FeedItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, domain.FeedItem{
			Title:   strings.TrimSpace(entry.Title),
			Link:    entry.Link,
			Summary: normalizeSummary(entry),
			Source:  source.ID,
			PubDate: publishDate(entry),
		})
	}

	return items, nil
}

// normalizeSummary prefers the short excerpt over the full body and
// bounds its length for storage.
func normalizeSummary(entry *gofeed.Item) string {
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	runes := []rune(summary)
	if len(runes) > maxSummaryLen {
		summary = string(runes[:maxSummaryLen])
	}

	return strings.TrimSpace(summary)
}

func publishDate(entry *gofeed.Item) string {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if entry.Published != "" {
		return entry.Published
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}
