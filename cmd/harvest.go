package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/api"
	"github.com/opendatahub-br/dadosgov-harvester/internal/app"
	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/clock/system"
	"github.com/opendatahub-br/dadosgov-harvester/internal/config"
	"github.com/opendatahub-br/dadosgov-harvester/internal/harvest"
	"github.com/opendatahub-br/dadosgov-harvester/internal/id/uuid"
	"github.com/opendatahub-br/dadosgov-harvester/internal/portal"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress/sinks"
	"github.com/opendatahub-br/dadosgov-harvester/internal/telemetry"
)

// newHarvestCmd creates and configures the 'harvest' subcommand, which runs
// one complete partitioned crawl of the portal catalog.
func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Runs one partitioned catalog harvest",
		Long: `Enumerates license partitions, pages each one to exhaustion or to the
API's result-window ceiling under bounded concurrency, deduplicates datasets
across partitions, and writes the merged set to the configured sink.`,

		RunE: runHarvestCommand,
	}
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, "dadosgov-harvester")
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if terr := tp.Shutdown(shutdownCtx); terr != nil {
			logger.Warn("shutdown tracer provider", zap.Error(terr))
		}
	}()

	hub, status, err := buildProgressHub(logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("close progress hub", zap.Error(cerr))
		}
	}()

	if cfg.Server.Enabled {
		shutdown := startStatusServer(cfg, status, logger)
		defer shutdown()
	}

	harvester, err := buildHarvester(appInstance, hub)
	if err != nil {
		return err
	}

	summary, err := harvester.Run(ctx)
	if err != nil {
		var enumErr *harvest.EnumerationError
		if errors.As(err, &enumErr) {
			return fmt.Errorf("cannot start harvest: %w", err)
		}
		return fmt.Errorf("run harvest: %w", err)
	}
	logSummary(logger, summary)
	return nil
}

func buildProgressHub(logger *zap.Logger) (*progress.Hub, *sinks.StatusSink, error) {
	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	status := sinks.NewStatusSink()
	hub := progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
		status,
	)
	return hub, status, nil
}

func startStatusServer(cfg config.Config, status api.StatusSource, logger *zap.Logger) func() {
	server := api.NewServer(cfg.Server.Port, status, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown status server", zap.Error(err))
		}
	}
}

func buildHarvester(appInstance *app.App, emitter progress.Emitter) (*harvest.Harvester, error) {
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	client, err := portal.NewClient(portal.ClientConfig{
		BaseURL:           cfg.Portal.BaseURL,
		UserAgent:         cfg.Portal.UserAgent,
		RequestsPerSecond: cfg.Portal.RequestsPerSecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init portal client: %w", err)
	}

	licenses := make([]catalog.PartitionKey, 0, len(cfg.Harvest.Licenses))
	for _, l := range cfg.Harvest.Licenses {
		licenses = append(licenses, catalog.PartitionKey(l))
	}
	var enumerator harvest.Enumerator
	switch cfg.Harvest.Enumerator {
	case "facet":
		enumerator = portal.NewFacetEnumerator(client, licenses, logger)
	default:
		enumerator = portal.NewStaticEnumerator(licenses)
	}

	policy := harvest.NewExponentialRetryPolicy(cfg.Harvest.Retries, cfg.Harvest.RetryDelay, 0)

	return harvest.NewHarvester(
		enumerator,
		client,
		policy,
		appInstance.Sink(),
		appInstance.ReportStore(),
		appInstance.Publisher(),
		system.New(),
		uuid.NewGenerator(),
		emitter,
		harvest.Config{
			PageSize:       cfg.Harvest.PageSize,
			Concurrency:    cfg.Harvest.Concurrency,
			RequestTimeout: cfg.Harvest.Timeout,
			Topic:          cfg.Publisher.TopicID,
		},
		logger,
	), nil
}

func logSummary(logger *zap.Logger, summary catalog.RunSummary) {
	for _, p := range summary.Partitions {
		logger.Info("partition report",
			zap.String("partition", string(p.Partition)),
			zap.String("status", string(p.Status)),
			zap.Int("records_fetched", p.RecordsFetched),
			zap.Int("records_new", p.RecordsNew),
			zap.Int("pages", p.Pages),
			zap.String("error", p.ErrorText),
		)
	}
	logger.Info("harvest complete",
		zap.String("run_id", summary.RunID),
		zap.Int("unique_records", summary.UniqueRecords),
		zap.Int("records_written", summary.RecordsWritten),
	)
}
