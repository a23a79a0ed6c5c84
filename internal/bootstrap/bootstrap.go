package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vkazmin/claimflow/internal/config"
	"github.com/vkazmin/claimflow/internal/core/ports"
	"github.com/vkazmin/claimflow/internal/core/usecase"
	"github.com/vkazmin/claimflow/internal/infrastructure/checklist"
	"github.com/vkazmin/claimflow/internal/infrastructure/llm/gemini"
	"github.com/vkazmin/claimflow/internal/infrastructure/pdftext"
	"github.com/vkazmin/claimflow/internal/infrastructure/queue/nats"
	"github.com/vkazmin/claimflow/internal/infrastructure/repository/postgres"
	"github.com/vkazmin/claimflow/internal/infrastructure/resilience"
	"github.com/vkazmin/claimflow/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Submissions ports.SubmissionRepository

	SubmitUC   *usecase.SubmitClaimUseCase
	PipelineUC *usecase.RunPipelineUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	submissions := postgres.NewSubmissionRepository(db)
	if err := submissions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	attachments := postgres.NewAttachmentRepository(db)
	logs := postgres.NewExtractionLogRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	// One shared executor; breakers are tracked per operation, so the NATS
	// and reasoning-service circuits trip independently.
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	reasoner := gemini.New(
		cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey,
		gemini.WithRequestsPerMinute(cfg.GeminiRPM),
		gemini.WithExecutor(executor),
	)

	resolver, err := newResolver(cfg.ChecklistPath)
	if err != nil {
		return nil, err
	}

	pages := pdftext.New()
	classifier := usecase.NewDocumentClassifier(reasoner, storage, pages, logger)
	extractor := usecase.NewFactsExtractor(reasoner, storage, logger)
	auditor := usecase.NewMissingDocumentAuditor(reasoner, logger)
	engine := usecase.NewDecisionEngine(reasoner, logger)

	submitUC := usecase.NewSubmitClaimUseCase(submissions, attachments, storage, queue)
	pipelineUC := usecase.NewRunPipelineUseCase(
		submissions, attachments, logs, storage, resolver,
		classifier, extractor, auditor, engine, logger,
	)

	return &App{
		Config:      cfg,
		Queue:       queue,
		Submissions: submissions,
		SubmitUC:    submitUC,
		PipelineUC:  pipelineUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newResolver(path string) (ports.ChecklistResolver, error) {
	if path == "" {
		return checklist.New(), nil
	}
	resolver, err := checklist.NewFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load checklist tables: %w", err)
	}
	return resolver, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
