package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TriadNews/internal/config"
	"TriadNews/internal/domain"
	"TriadNews/internal/feeds"
	"TriadNews/internal/infrastructure/feed"
	"TriadNews/internal/infrastructure/llm"
	"TriadNews/internal/infrastructure/scheduler"
	"TriadNews/internal/infrastructure/scraper"
	"TriadNews/internal/infrastructure/storage"
	"TriadNews/internal/logging"
	"TriadNews/internal/server"
	"TriadNews/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repository *storage.SQLiteRepository
	service    *usecase.Service
	refresher  *scheduler.IntervalScheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repository, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	sources := toDomainSources(cfg.Sources)

	registry := feeds.NewRegistry()
	registry.Register(feed.NewRSSStrategy())
	registry.Register(feed.NewHomepageStrategy(nil))

	service := usecase.NewService(usecase.ServiceDeps{
		Source:     feed.NewStrategySource(registry, sources, baseLogger.With("component", "feeds")),
		Extractor:  scraper.NewExtractor(nil, baseLogger.With("component", "scraper")),
		Analyzer:   llm.NewClaudeClient(cfg.Anthropic),
		Repository: repository,
		Sources:    sources,
		MaxPerHour: cfg.Analysis.MaxPerHour,
		Logger:     baseLogger.With("component", "service"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		repository: repository,
		service:    service,
		refresher:  scheduler.NewIntervalScheduler(cfg.Refresh.Interval),
	}, nil
}

// Run serves the JSON API until the process receives a stop signal.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.repository.Close()

	if a.cfg.Refresh.Interval > 0 {
		if err := a.refresher.Start(ctx, func(time.Time) {
			if _, err := a.service.Refresh(ctx); err != nil {
				a.logger.Error("background refresh failed", "error", err)
			}
		}); err != nil {
			return err
		}
		defer a.refresher.Stop(context.Background())
	}

	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           server.New(a.service, a.logger.With("component", "http")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func toDomainSources(cfg []config.SourceConfig) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg))
	for _, source := range cfg {
		sources = append(sources, domain.Source{
			ID:          source.ID,
			Name:        source.Name,
			FeedURL:     source.FeedURL,
			HomepageURL: source.HomepageURL,
			Color:       source.Color,
			Language:    source.Language,
			Bias:        source.Bias,
		})
	}
	return sources
}
