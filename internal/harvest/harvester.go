// Package harvest implements the coverage-maximizing partitioned crawl:
// partition enumeration, bounded-concurrency pagination, cross-partition
// deduplication, and run reporting.
package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress"
)

// Config controls one harvest run.
type Config struct {
	PageSize       int
	Concurrency    int
	RequestTimeout time.Duration
	// Topic is the publisher topic for run-completion events; empty
	// disables publishing.
	Topic string
}

// Harvester orchestrates a complete run: enumerate partitions, fetch them
// under bounded concurrency, drain the deduplicated set into the sink, and
// record the per-partition report.
type Harvester struct {
	enumerator Enumerator
	client     SearchClient
	policy     RetryPolicy
	sink       ResultSink
	reports    ReportStore
	publisher  Publisher
	clock      Clock
	idGen      IDGenerator
	emitter    progress.Emitter
	cfg        Config
	logger     *zap.Logger
}

// NewHarvester wires a Harvester. The sink is required; report store and
// publisher are optional collaborators.
func NewHarvester(
	enumerator Enumerator,
	client SearchClient,
	policy RetryPolicy,
	sink ResultSink,
	reports ReportStore,
	publisher Publisher,
	clock Clock,
	idGen IDGenerator,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Harvester {
	if clock == nil {
		clock = systemClock{}
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		enumerator: enumerator,
		client:     client,
		policy:     policy,
		sink:       sink,
		reports:    reports,
		publisher:  publisher,
		clock:      clock,
		idGen:      idGen,
		emitter:    emitter,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one harvest. Enumeration failure aborts before any fetch
// work; everything downstream favors maximal partial coverage, so a
// completed run always flushes whatever was deduplicated even when some
// partitions failed or stopped at the ceiling.
func (h *Harvester) Run(ctx context.Context) (catalog.RunSummary, error) {
	runID, err := h.newRunID()
	if err != nil {
		return catalog.RunSummary{}, err
	}
	summary := catalog.RunSummary{
		RunID:   runID,
		Started: h.clock.Now(),
	}

	keys, err := h.enumerator.Enumerate(ctx)
	if err != nil {
		return summary, &EnumerationError{Err: err}
	}
	if len(keys) == 0 {
		return summary, &EnumerationError{Err: ErrNoPartitions}
	}
	h.logger.Info("starting harvest run",
		zap.String("run_id", runID),
		zap.Int("partitions", len(keys)),
		zap.Int("page_size", h.cfg.PageSize),
		zap.Int("concurrency", h.cfg.Concurrency),
	)
	h.emitter.Emit(progress.Event{
		RunID:   runID,
		TS:      summary.Started,
		Stage:   progress.StageRunStart,
		Records: len(keys),
	})

	acc := NewAccumulator()
	fetcher := NewPartitionFetcher(h.client, h.policy, acc, FetcherConfig{
		PageSize:       h.cfg.PageSize,
		RequestTimeout: h.cfg.RequestTimeout,
	}, h.clock, h.emitter, h.logger)
	scheduler := NewScheduler(fetcher, h.cfg.Concurrency, h.logger)

	summary.Partitions = scheduler.Run(ctx, runID, keys)

	records, err := acc.Drain()
	if err != nil {
		// Drain is called exactly once per run; failure here is an
		// internal invariant violation and aborts the run.
		return summary, fmt.Errorf("drain accumulator: %w", err)
	}
	summary.UniqueRecords = len(records)

	written, err := h.sink.WriteRecords(ctx, records)
	summary.RecordsWritten = written
	if err != nil {
		summary.Finished = h.clock.Now()
		return summary, fmt.Errorf("write records: %w", err)
	}

	summary.Finished = h.clock.Now()
	h.emitter.Emit(progress.Event{
		RunID:   runID,
		TS:      summary.Finished,
		Stage:   progress.StageRunDone,
		Records: summary.UniqueRecords,
		Dur:     summary.Finished.Sub(summary.Started),
	})

	h.storeReport(ctx, summary)
	h.publishSummary(ctx, summary)

	h.logger.Info("harvest run finished",
		zap.String("run_id", runID),
		zap.Int("unique_records", summary.UniqueRecords),
		zap.Int("records_written", summary.RecordsWritten),
		zap.Int("partitions_partial", summary.Partial()),
		zap.Int("partitions_failed", summary.Failed()),
		zap.Duration("duration", summary.Finished.Sub(summary.Started)),
	)
	return summary, nil
}

func (h *Harvester) newRunID() (string, error) {
	if h.idGen == nil {
		return fmt.Sprintf("run-%d", h.clock.Now().UnixNano()), nil
	}
	id, err := h.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id, nil
}

// storeReport persists the run report when a store is configured. Report
// persistence is best-effort: failures are logged, never fatal.
func (h *Harvester) storeReport(ctx context.Context, summary catalog.RunSummary) {
	if h.reports == nil {
		return
	}
	if err := h.reports.StoreRun(ctx, summary); err != nil {
		h.logger.Warn("store run report failed", zap.String("run_id", summary.RunID), zap.Error(err))
	}
}

// publishSummary emits the run-completion event when a publisher and topic
// are configured. Publishing is best-effort.
func (h *Harvester) publishSummary(ctx context.Context, summary catalog.RunSummary) {
	if h.publisher == nil || h.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":             summary.RunID,
		"started_at":         summary.Started.Format(time.RFC3339),
		"finished_at":        summary.Finished.Format(time.RFC3339),
		"unique_records":     summary.UniqueRecords,
		"records_written":    summary.RecordsWritten,
		"partitions":         len(summary.Partitions),
		"partitions_partial": summary.Partial(),
		"partitions_failed":  summary.Failed(),
	}
	if _, err := h.publisher.Publish(ctx, h.cfg.Topic, payload); err != nil {
		h.logger.Warn("publish run summary failed", zap.String("run_id", summary.RunID), zap.Error(err))
	}
}
