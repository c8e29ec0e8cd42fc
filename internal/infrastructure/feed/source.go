package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"TriadNews/internal/domain"
	"TriadNews/internal/feeds"
	"TriadNews/internal/ports"
)

const perSourceTimeout = 15 * time.Second

// StrategySource implements FeedSource via registered fetch strategies.
// Every source runs concurrently with its own timeout; a dead source
// degrades to a diagnostic string and never blocks or fails the rest.
type StrategySource struct {
	registry *feeds.Registry
	sources  []domain.Source
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires the strategy registry with configured sources.
func NewStrategySource(reg *feeds.Registry, sources []domain.Source, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		timeout:  perSourceTimeout,
		logger:   log,
	}
}

type sourceResult struct {
	items      []domain.FeedItem
	diagnostic string
}

// FetchAll collects items from every source in parallel and waits for
// all of them to settle. Partial results are the norm: failures come
// back as diagnostic strings, never as an error.
func (s *StrategySource) FetchAll(ctx context.Context) ([]domain.FeedItem, []string) {
	results := make([]sourceResult, len(s.sources))

	var wg sync.WaitGroup
	for i, source := range s.sources {
		wg.Add(1)
		go func(i int, source domain.Source) {
			defer wg.Done()
			results[i] = s.fetchOne(ctx, source)
		}(i, source)
	}
	wg.Wait()

	var items []domain.FeedItem
	var diagnostics []string
	for _, res := range results {
		items = append(items, res.items...)
		if res.diagnostic != "" {
			diagnostics = append(diagnostics, res.diagnostic)
		}
	}

	s.debug("fetch all settled", "sources", len(s.sources), "items", len(items), "failures", len(diagnostics))
	return items, diagnostics
}

func (s *StrategySource) fetchOne(ctx context.Context, source domain.Source) sourceResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	strategy, err := s.registry.Resolve(feeds.StrategyFor(source))
	if err != nil {
		return sourceResult{diagnostic: fmt.Sprintf("%s: %v", source.Name, err)}
	}

	items, err := strategy.Fetch(ctx, source)
	if err != nil {
		s.debug("source failed", "source", source.ID, "strategy", strategy.Name(), "error", err)
		return sourceResult{diagnostic: fmt.Sprintf("%s: %v", source.Name, err)}
	}
	if len(items) == 0 {
		return sourceResult{diagnostic: fmt.Sprintf("%s: no items collected", source.Name)}
	}

	s.debug("source produced items", "source", source.ID, "strategy", strategy.Name(), "count", len(items))
	return sourceResult{items: items}
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
