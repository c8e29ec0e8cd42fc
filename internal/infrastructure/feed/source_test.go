package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TriadNews/internal/domain"
	"TriadNews/internal/feeds"
)

type stubStrategy struct {
	name  string
	items map[string][]domain.FeedItem
	errs  map[string]error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, source domain.Source) ([]domain.FeedItem, error) {
	if err := s.errs[source.ID]; err != nil {
		return nil, err
	}
	return s.items[source.ID], nil
}

func TestFetchAllMergesPartialResults(t *testing.T) {
	t.Parallel()

	registry := feeds.NewRegistry()
	registry.Register(&stubStrategy{
		name: "rss",
		items: map[string][]domain.FeedItem{
			"alpha": {
				{Link: "https://alpha.example/1", Source: "alpha"},
				{Link: "https://alpha.example/2", Source: "alpha"},
				{Link: "https://alpha.example/3", Source: "alpha"},
			},
		},
		errs: map[string]error{
			"beta": errors.New("connection refused"),
		},
	})
	registry.Register(&stubStrategy{
		name: "homepage",
		items: map[string][]domain.FeedItem{
			"gamma": {
				{Link: "https://gamma.example/1", Source: "gamma"},
				{Link: "https://gamma.example/2", Source: "gamma"},
			},
		},
	})

	source := NewStrategySource(registry, []domain.Source{
		{ID: "alpha", Name: "Alpha", FeedURL: "https://alpha.example/rss"},
		{ID: "beta", Name: "Beta", FeedURL: "https://beta.example/rss"},
		{ID: "gamma", Name: "Gamma", HomepageURL: "https://gamma.example"},
	}, nil)

	items, diagnostics := source.FetchAll(context.Background())

	if len(items) != 5 {
		t.Fatalf("expected 5 items from surviving sources, got %d", len(items))
	}
	if len(diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diagnostics), diagnostics)
	}
	if !strings.HasPrefix(diagnostics[0], "Beta: ") {
		t.Fatalf("diagnostic should name the source: %s", diagnostics[0])
	}

	// source order is stable regardless of goroutine completion order
	if items[0].Source != "alpha" || items[3].Source != "gamma" {
		t.Fatalf("items out of source order: %+v", items)
	}
}

func TestFetchAllEmptySourceIsDiagnosed(t *testing.T) {
	t.Parallel()

	registry := feeds.NewRegistry()
	registry.Register(&stubStrategy{name: "rss"})

	source := NewStrategySource(registry, []domain.Source{
		{ID: "quiet", Name: "Quiet", FeedURL: "https://quiet.example/rss"},
	}, nil)

	items, diagnostics := source.FetchAll(context.Background())
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
	if len(diagnostics) != 1 || diagnostics[0] != "Quiet: no items collected" {
		t.Fatalf("unexpected diagnostics: %v", diagnostics)
	}
}

func TestFetchAllUnknownStrategy(t *testing.T) {
	t.Parallel()

	source := NewStrategySource(feeds.NewRegistry(), []domain.Source{
		{ID: "orphan", Name: "Orphan", FeedURL: "https://orphan.example/rss"},
	}, nil)

	items, diagnostics := source.FetchAll(context.Background())
	if len(items) != 0 || len(diagnostics) != 1 {
		t.Fatalf("expected only a diagnostic, got items=%d diagnostics=%v", len(items), diagnostics)
	}
}
