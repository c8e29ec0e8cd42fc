package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"TriadNews/internal/domain"
	"TriadNews/internal/ports"
)

// ErrRateLimited rejects analyze requests once the rolling-hour
// enrichment budget is spent.
var ErrRateLimited = errors.New("analysis rate limit reached")

// ServiceDeps wires all driven adapters into the orchestration service.
type ServiceDeps struct {
	Source     ports.FeedSource
	Extractor  ports.ContentExtractor
	Analyzer   ports.Analyzer
	Repository ports.ArticleRepository
	Sources    []domain.Source
	MaxPerHour int
	Logger     *slog.Logger
}

// Service implements the refresh/analyze/list operations on top of the
// ingestion pipeline.
type Service struct {
	source     ports.FeedSource
	extractor  ports.ContentExtractor
	analyzer   ports.Analyzer
	repository ports.ArticleRepository
	maxPerHour int
	bias       map[string]string
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]*articleGuard
}

// articleGuard serializes analyze calls for one article id. The
// reference count lets the last holder remove the map entry, so the
// guard map does not grow with every article ever analyzed.
type articleGuard struct {
	mu   sync.Mutex
	refs int
}

// NewService constructs the orchestration component.
func NewService(deps ServiceDeps) *Service {
	maxPerHour := deps.MaxPerHour
	if maxPerHour <= 0 {
		maxPerHour = 20
	}

	bias := make(map[string]string, len(deps.Sources))
	for _, source := range deps.Sources {
		bias[source.ID] = source.Bias
	}

	return &Service{
		source:     deps.Source,
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		repository: deps.Repository,
		maxPerHour: maxPerHour,
		bias:       bias,
		logger:     deps.Logger,
		inflight:   map[string]*articleGuard{},
	}
}

// RefreshResult summarizes one refresh run.
type RefreshResult struct {
	NewArticles int      `json:"new_articles"`
	Fetched     int      `json:"fetched"`
	Total       int      `json:"total"`
	Errors      []string `json:"errors"`
}

// Refresh pulls every configured source, inserts the batch, and reports
// counts plus per-source diagnostics. A failing source never fails the run.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	items, diagnostics := s.source.FetchAll(ctx)

	inserted, err := s.repository.InsertBatch(ctx, items)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("insert batch: %w", err)
	}

	total, err := s.repository.TotalCount(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("total count: %w", err)
	}

	if diagnostics == nil {
		diagnostics = []string{}
	}

	s.info("refresh done", "fetched", len(items), "new", inserted, "total", total, "failures", len(diagnostics))

	return RefreshResult{
		NewArticles: inserted,
		Fetched:     len(items),
		Total:       total,
		Errors:      diagnostics,
	}, nil
}

// AnalyzeResult is the outcome of one analyze request.
type AnalyzeResult struct {
	Analysis     domain.TriadAnalysis `json:"analysis"`
	Cached       bool                 `json:"cached"`
	ScrapedWords int                  `json:"scraped_words,omitempty"`
}

// Analyze enriches one article: cached results return immediately, new
// ones pass the rate check, get scraped best-effort, and go through the
// enrichment provider. Concurrent calls for the same id serialize on a
// per-article guard, so the provider is never invoked twice for one row.
func (s *Service) Analyze(ctx context.Context, id string) (AnalyzeResult, error) {
	guard := s.acquireGuard(id)
	defer s.releaseGuard(id, guard)

	article, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return AnalyzeResult{}, err
	}

	if article.Analyzed() {
		return AnalyzeResult{Analysis: article.Analysis(), Cached: true}, nil
	}

	recent, err := s.repository.RecentAnalysisCount(ctx, 1)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("recent analysis count: %w", err)
	}
	if recent >= s.maxPerHour {
		return AnalyzeResult{}, fmt.Errorf("%w: %d per hour", ErrRateLimited, s.maxPerHour)
	}

	content, wordCount := s.extractor.Extract(ctx, article.URL)
	if content != "" {
		if err := s.repository.SaveContent(ctx, article.ID, content); err != nil {
			return AnalyzeResult{}, fmt.Errorf("save content: %w", err)
		}
		s.info("scraped article content", "id", article.ID, "source", article.SourceID, "words", wordCount)
	}

	analysis, err := s.analyzer.Analyze(ctx, domain.AnalysisRequest{
		Title:      article.OriginalTitle,
		Summary:    summaryOf(article),
		SourceID:   article.SourceID,
		SourceBias: s.biasFor(article.SourceID),
		Content:    content,
	})
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("analyze article %s: %w", article.ID, err)
	}

	if err := s.repository.SaveAnalysis(ctx, article.ID, analysis); err != nil {
		return AnalyzeResult{}, fmt.Errorf("persist analysis %s: %w", article.ID, err)
	}

	return AnalyzeResult{Analysis: analysis, ScrapedWords: wordCount}, nil
}

// ListResult carries one page of articles plus pagination metadata.
type ListResult struct {
	Articles   []domain.Article `json:"articles"`
	Total      int              `json:"total"`
	Categories []string         `json:"categories"`
}

// List applies the conjunctive filter and returns the page, the total
// matching count, and the set of known categories.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (ListResult, error) {
	articles, total, err := s.repository.List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list articles: %w", err)
	}

	categories, err := s.repository.Categories(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list categories: %w", err)
	}

	return ListResult{Articles: articles, Total: total, Categories: categories}, nil
}

// Stats reports storage counters for the health endpoint.
type Stats struct {
	Total      int `json:"total_articles"`
	Unanalyzed int `json:"unanalyzed"`
}

// Health returns current storage counters.
func (s *Service) Health(ctx context.Context) (Stats, error) {
	total, err := s.repository.TotalCount(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("total count: %w", err)
	}

	unanalyzed, err := s.repository.UnanalyzedCount(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("unanalyzed count: %w", err)
	}

	return Stats{Total: total, Unanalyzed: unanalyzed}, nil
}

func (s *Service) biasFor(sourceID string) string {
	return s.bias[sourceID]
}

func (s *Service) acquireGuard(id string) *articleGuard {
	s.mu.Lock()
	guard, ok := s.inflight[id]
	if !ok {
		guard = &articleGuard{}
		s.inflight[id] = guard
	}
	guard.refs++
	s.mu.Unlock()

	guard.mu.Lock()
	return guard
}

func (s *Service) releaseGuard(id string, guard *articleGuard) {
	guard.mu.Unlock()

	s.mu.Lock()
	guard.refs--
	if guard.refs == 0 {
		delete(s.inflight, id)
	}
	s.mu.Unlock()
}

func summaryOf(article domain.Article) string {
	if article.OriginalSummary == nil {
		return ""
	}
	return *article.OriginalSummary
}

func (s *Service) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
