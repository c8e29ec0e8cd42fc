package ports

import (
	"context"
	"errors"
	"time"

	"TriadNews/internal/domain"
)

// ErrNotFound is returned by repositories when no row matches an id.
var ErrNotFound = errors.New("article not found")

// FeedSource pulls fresh items from every configured upstream source.
// Per-source failures degrade to diagnostic strings, never an error.
type FeedSource interface {
	FetchAll(ctx context.Context) (items []domain.FeedItem, diagnostics []string)
}

// ContentExtractor retrieves best-effort article body text. It never
// fails: unreachable or unparseable pages yield empty content.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (content string, wordCount int)
}

// Analyzer produces the triad enrichment for one article via an
// external text-generation service.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.TriadAnalysis, error)
}

// ArticleRepository is the system of record for fetched articles and
// their enrichment state.
type ArticleRepository interface {
	InsertBatch(ctx context.Context, items []domain.FeedItem) (inserted int, err error)
	GetByID(ctx context.Context, id string) (domain.Article, error)
	SaveContent(ctx context.Context, id, content string) error
	SaveAnalysis(ctx context.Context, id string, analysis domain.TriadAnalysis) error
	List(ctx context.Context, filter domain.ListFilter) (articles []domain.Article, total int, err error)
	RecentAnalysisCount(ctx context.Context, hours int) (int, error)
	Categories(ctx context.Context) ([]string, error)
	TotalCount(ctx context.Context) (int, error)
	UnanalyzedCount(ctx context.Context) (int, error)
}

// Scheduler controls when background refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
