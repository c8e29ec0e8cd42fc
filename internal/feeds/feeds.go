package feeds

import (
	"context"
	"fmt"

	"TriadNews/internal/domain"
)

// Strategy captures a single collection approach for one source
// (structured feed, homepage scan, etc.).
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, source domain.Source) ([]domain.FeedItem, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("feed strategy %s is not registered", name)
}

// StrategyFor selects the collection strategy for a source: sources with
// a feed endpoint use the structured feed, the rest fall back to
// scanning their homepage.
func StrategyFor(source domain.Source) string {
	if source.FeedURL != "" {
		return "rss"
	}
	return "homepage"
}
