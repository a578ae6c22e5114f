// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/config"
	"github.com/opendatahub-br/dadosgov-harvester/internal/harvest"
	"github.com/opendatahub-br/dadosgov-harvester/internal/logging"
	pubmemory "github.com/opendatahub-br/dadosgov-harvester/internal/publisher/memory"
	pubgcp "github.com/opendatahub-br/dadosgov-harvester/internal/publisher/pubsub"
	"github.com/opendatahub-br/dadosgov-harvester/internal/report"
	reportpg "github.com/opendatahub-br/dadosgov-harvester/internal/report/postgres"
	"github.com/opendatahub-br/dadosgov-harvester/internal/sink"
	sinkgcs "github.com/opendatahub-br/dadosgov-harvester/internal/sink/gcs"
	sinklocal "github.com/opendatahub-br/dadosgov-harvester/internal/sink/local"
	sinkmemory "github.com/opendatahub-br/dadosgov-harvester/internal/sink/memory"
)

// App holds the shared, long-lived services for the harvester. It is
// initialized once at startup and handed to the command that needs it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	sink   sink.Provider
	report report.Store
	pub    harvest.Publisher

	pubsubClient *pubsubv2.Client
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger { return a.logger }

// Sink exposes the configured result sink provider.
func (a *App) Sink() sink.Provider { return a.sink }

// ReportStore provides access to the run report store.
func (a *App) ReportStore() report.Store { return a.report }

// Publisher returns the run-event publisher, nil when disabled.
func (a *App) Publisher() harvest.Publisher { return a.pub }

// New creates and initializes an App from configuration. It is the central
// point for service construction and fails fast when any provider cannot be
// initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}
	if err := a.initSink(ctx); err != nil {
		return nil, err
	}
	if err := a.initReportStore(ctx); err != nil {
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) initSink(ctx context.Context) error {
	switch a.cfg.Sink.Provider {
	case "local":
		s, err := sinklocal.New(sinklocal.Config{
			OutputDir: a.cfg.Sink.OutputDir,
			ChunkSize: a.cfg.Sink.ChunkSize,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("init local sink: %w", err)
		}
		a.logger.Info("using local sink", zap.String("output_dir", a.cfg.Sink.OutputDir))
		a.sink = s
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init storage client: %w", err)
		}
		s, err := sinkgcs.New(client, sinkgcs.Config{
			Bucket:    a.cfg.Sink.GCSBucket,
			Prefix:    a.cfg.Sink.GCSPrefix,
			ChunkSize: a.cfg.Sink.ChunkSize,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("init gcs sink: %w", err)
		}
		a.logger.Info("using gcs sink", zap.String("bucket", a.cfg.Sink.GCSBucket))
		a.sink = s
	case "memory":
		a.sink = sinkmemory.New()
	case "noop":
		a.logger.Info("using no-op sink; harvested records will be discarded")
		a.sink = sink.NoOpProvider{}
	default:
		return fmt.Errorf("unknown sink provider: %s", a.cfg.Sink.Provider)
	}
	return nil
}

func (a *App) initReportStore(ctx context.Context) error {
	switch a.cfg.Report.Provider {
	case "postgres":
		store, err := reportpg.New(ctx, reportpg.Config{DSN: a.cfg.Report.DSN})
		if err != nil {
			return fmt.Errorf("init postgres report store: %w", err)
		}
		a.logger.Info("using postgres report store")
		a.report = store
	case "memory":
		a.report = report.NewMemoryStore()
	case "noop":
		a.report = report.NoOpStore{}
	default:
		return fmt.Errorf("unknown report provider: %s", a.cfg.Report.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	switch a.cfg.Publisher.Provider {
	case "pubsub":
		client, err := pubsubv2.NewClient(ctx, a.cfg.Publisher.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		a.pubsubClient = client
		a.pub = pubgcp.New(client.Publisher(a.cfg.Publisher.TopicID))
		a.logger.Info("using pubsub publisher", zap.String("topic", a.cfg.Publisher.TopicID))
	case "memory":
		a.pub = pubmemory.New()
	case "noop":
		a.pub = nil
	default:
		return fmt.Errorf("unknown publisher provider: %s", a.cfg.Publisher.Provider)
	}
	return nil
}

// Close shuts down every held service, logging rather than failing on
// individual close errors.
func (a *App) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("close sink", zap.Error(err))
		}
	}
	if a.report != nil {
		a.report.Close()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("close pubsub client", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
