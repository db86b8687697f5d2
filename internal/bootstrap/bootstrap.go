package bootstrap

import (
	"fmt"
	"time"

	"github.com/inovadocs/trade-doc-review/internal/config"
	"github.com/inovadocs/trade-doc-review/internal/core/ports"
	"github.com/inovadocs/trade-doc-review/internal/core/review"
	"github.com/inovadocs/trade-doc-review/internal/core/usecase"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/backend"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/queue/nats"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/resilience"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Reviewer  ports.DocumentReviewer
	Queue     ports.MessageQueue
	ProcessUC ports.DocumentProcessor

	executor *resilience.Executor
	closeFn  func()
}

// New wires the review stack used by the API. The message queue is only
// connected by NewWorker.
func New(cfg config.Config) (*App, error) {
	summaryOpts, err := config.LoadProfile(cfg.ReviewProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load review profile: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init report storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.FromSettings(cfg.RetryMaxAttempts, cfg.BreakerEnabled))
	source := backend.New(cfg.BackendURL, backend.Options{
		Timeout:            time.Duration(cfg.BackendTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})

	reviewer := usecase.NewReviewUseCase(source, storage, usecase.ReviewOptions{
		ReportPrefix: cfg.ReportPrefix,
		Summary:      summaryOpts,
	})

	return &App{
		Config:   cfg,
		Reviewer: reviewer,
		executor: executor,
	}, nil
}

// NewWorker extends New with the NATS queue and the end-to-end processor.
func NewWorker(cfg config.Config) (*App, error) {
	app, err := New(cfg)
	if err != nil {
		return nil, err
	}

	queue, err := nats.New(cfg.NATSURL, nats.Options{
		ProcessedSubject:   cfg.NATSProcessedSubject,
		ReviewedSubject:    cfg.NATSReviewedSubject,
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: app.executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	options := review.ParseAutoFixOptions(cfg.WorkerAutoFixOptions)
	app.Queue = queue
	app.ProcessUC = usecase.NewProcessReviewUseCase(app.Reviewer, queue, options)
	app.closeFn = queue.Close
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
