package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vkazmin/claimflow/internal/bootstrap"
	"github.com/vkazmin/claimflow/internal/config"
	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/observability/logging"
	"github.com/vkazmin/claimflow/internal/observability/metrics"
)

const serviceName = "claimflow-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	runTimeout := time.Duration(cfg.RunTimeoutSeconds) * time.Second
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeClaimSubmitted(ctx, func(handlerCtx context.Context, submissionID string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, runTimeout)
		defer cancel()

		if submission, err := app.Submissions.GetByID(runCtx, submissionID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(submission.CreatedAt))
		}

		workerMetrics.StartRun()
		start := time.Now()
		runErr := app.PipelineUC.Run(runCtx, submissionID)
		workerMetrics.FinishRun(serviceName, runOutcome(runCtx, app, submissionID, runErr), time.Since(start))
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

// runOutcome labels the metric with the terminal claim status when it can be
// read back, falling back to a plain success/error split.
func runOutcome(ctx context.Context, app *bootstrap.App, submissionID string, runErr error) string {
	if runErr != nil {
		return "error"
	}
	submission, err := app.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return "success"
	}
	switch submission.Status {
	case domain.StatusMissing, domain.StatusApproved, domain.StatusDeclined,
		domain.StatusPartialPayment, domain.StatusClosed, domain.StatusPaid:
		return string(submission.Status)
	default:
		return "success"
	}
}
