package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/mkorneev/scholarmatch/internal/config"
	"github.com/mkorneev/scholarmatch/internal/core/ports"
	"github.com/mkorneev/scholarmatch/internal/core/usecase"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/llm/ollama"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/queue/nats"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/repository/postgres"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/resilience"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/scholar"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue   *nats.Queue
	Records ports.RecordDirectory
	Batch   ports.BatchCoordinator
	Analyze ports.ResearcherAnalyzer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, meter ports.AnalysisMeter) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewResearcherRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	settings := postgres.NewSettingsRepository(db)

	archive, err := localfs.New(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init response archive: %w", err)
	}

	executorCfg := resilience.DefaultConfig()
	executorCfg.MaxRetries = cfg.RetryMaxAttempts
	executorCfg.BaseDelay = time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond
	executorCfg.MaxDelay = time.Duration(cfg.RetryMaxDelayMS) * time.Millisecond
	executor := resilience.NewExecutor(executorCfg)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	source := scholar.New(cfg.OpenAlexURL, cfg.OpenAlexMailto, float64(cfg.OpenAlexRPS))
	analyzer := ollama.NewAnalyzer(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel))

	analyzeUC := usecase.NewAnalyzeResearcherUseCase(repo, settings, source, analyzer, executor, archive, meter)
	batchUC := usecase.NewBatchUseCase(repo, settings, analyzeUC, cfg.BatchConcurrency)
	recordsUC := usecase.NewRecordsUseCase(repo, settings, queue)

	return &App{
		Config: cfg,

		Queue:   queue,
		Records: recordsUC,
		Batch:   batchUC,
		Analyze: analyzeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
