package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TriadNews/internal/ports"
)

const (
	userAgent       = "Mozilla/5.0 (compatible; TriadNews/1.0; +https://triad.news)"
	requestTimeout  = 15 * time.Second
	maxContentLen   = 5000
	minParagraphLen = 30
	// looser selectors pick up more noise, so the body-wide fallback
	// demands slightly longer paragraphs
	minFallbackParagraphLen = 40
	minParagraphCount       = 2
)

// boilerplateSelector removes chrome that would pollute extracted text.
const boilerplateSelector = "script, style, nav, footer, header, aside, " +
	".ad, .advertisement, .sidebar, .comments, .related, .social-share, .cookie-banner, noscript, iframe"

// contentSelectors is tried in order, most specific first. The first
// container yielding enough qualifying paragraphs wins. Append new
// heuristics here; the extraction flow stays untouched.
var contentSelectors = []string{
	"article .article-body",
	"article .article-content",
	"article .content-body",
	"article .story-body",
	".article-body",
	".article-content",
	".article__body",
	".story-body",
	".post-content",
	".entry-content",
	".content-body",
	"[itemprop='articleBody']",
	"[data-component='text-block']",
	"article",
	"main article",
	"main",
	".content",
}

// Extractor pulls best-effort main-body text from article pages.
type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client; a nil client gets the default timeout.
func NewExtractor(client *http.Client, log *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Extractor{client: client, logger: log}
}

// Extract fetches the page and returns extracted body text plus a word
// count. It never fails: timeouts, bad statuses, and unparseable pages
// all yield empty content and a zero count.
func (e *Extractor) Extract(ctx context.Context, url string) (string, int) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("content extraction failed", "url", url, "error", err)
		}
		return "", 0
	}

	doc.Find(boilerplateSelector).Remove()

	content := extractFromContainers(doc)
	if content == "" {
		content = extractFromBody(doc)
	}

	// truncate by runes, not bytes, so multi-byte text stays valid UTF-8
	if runes := []rune(content); len(runes) > maxContentLen {
		content = string(runes[:maxContentLen]) + "..."
	}

	return content, len(strings.Fields(content))
}

func (e *Extractor) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

// extractFromContainers walks the prioritized selector list and accepts
// the first container with enough qualifying paragraphs.
func extractFromContainers(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		container := doc.Find(selector)
		if container.Length() == 0 {
			continue
		}

		paragraphs := collectParagraphs(container, minParagraphLen)
		if len(paragraphs) >= minParagraphCount {
			return strings.Join(paragraphs, "\n\n")
		}
	}

	return ""
}

func extractFromBody(doc *goquery.Document) string {
	paragraphs := collectParagraphs(doc.Find("body"), minFallbackParagraphLen)
	return strings.Join(paragraphs, "\n\n")
}

func collectParagraphs(container *goquery.Selection, minLen int) []string {
	var paragraphs []string
	container.Find("p").Each(func(i int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > minLen {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs
}
