package harvest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress"
)

// FetcherConfig controls per-partition pagination behavior.
type FetcherConfig struct {
	PageSize       int
	RequestTimeout time.Duration
}

// PartitionFetcher exhaustively pages through one partition, streaming every
// record into the shared accumulator as it arrives. Records already produced
// survive a later page failure; the partition is then marked failed without
// affecting sibling partitions.
type PartitionFetcher struct {
	client  SearchClient
	policy  RetryPolicy
	acc     *Accumulator
	cfg     FetcherConfig
	clock   Clock
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewPartitionFetcher constructs a fetcher bound to one run's accumulator.
func NewPartitionFetcher(
	client SearchClient,
	policy RetryPolicy,
	acc *Accumulator,
	cfg FetcherConfig,
	clock Clock,
	emitter progress.Emitter,
	logger *zap.Logger,
) *PartitionFetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if clock == nil {
		clock = systemClock{}
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartitionFetcher{
		client:  client,
		policy:  policy,
		acc:     acc,
		cfg:     cfg,
		clock:   clock,
		emitter: emitter,
		logger:  logger,
	}
}

// Fetch walks the partition page by page until a short page (success), the
// result-window ceiling (partial), or retry exhaustion (failed). It always
// returns a report; fetch failures never propagate as errors.
func (f *PartitionFetcher) Fetch(ctx context.Context, runID string, key catalog.PartitionKey) catalog.PartitionReport {
	report := catalog.PartitionReport{
		Partition: key,
		Started:   f.clock.Now(),
	}
	f.emitter.Emit(progress.Event{
		RunID:     runID,
		TS:        report.Started,
		Stage:     progress.StagePartitionStart,
		Partition: key,
	})

	cursor, err := NewPageCursor(f.cfg.PageSize)
	if err != nil {
		report.Status = catalog.PartitionFailed
		report.ErrorText = err.Error()
		return f.finish(runID, report)
	}

	for {
		if !cursor.InWindow() {
			// The next page would straddle the result-window ceiling.
			// Known coverage gap, not an error.
			report.Status = catalog.PartitionPartial
			f.logger.Warn("partition truncated at result window ceiling",
				zap.String("partition", string(key)),
				zap.Int("offset", cursor.Offset()),
				zap.Int("records_fetched", report.RecordsFetched),
			)
			break
		}
		if ctx.Err() != nil {
			report.Status = catalog.PartitionFailed
			report.ErrorText = ctx.Err().Error()
			break
		}

		page, dur, err := f.fetchPage(ctx, key, cursor.Offset())
		if err != nil {
			report.Status = catalog.PartitionFailed
			report.ErrorText = err.Error()
			f.logger.Error("abandoning partition after retry exhaustion",
				zap.String("partition", string(key)),
				zap.Int("offset", cursor.Offset()),
				zap.Error(err),
			)
			break
		}

		if report.Pages == 0 && page.Total > ResultWindowCeiling {
			f.logger.Warn("partition total exceeds result window ceiling; coverage will be partial",
				zap.String("partition", string(key)),
				zap.Int("total", page.Total),
			)
		}
		report.Pages++

		unique := 0
		for _, rec := range page.Records {
			rec.Partition = key
			recordsOffered.Inc()
			if f.acc.Offer(rec) {
				unique++
			} else {
				recordsDuplicate.Inc()
			}
		}
		report.RecordsFetched += len(page.Records)
		report.RecordsNew += unique

		f.emitter.Emit(progress.Event{
			RunID:     runID,
			TS:        f.clock.Now(),
			Stage:     progress.StagePageDone,
			Partition: key,
			Offset:    cursor.Offset(),
			Records:   len(page.Records),
			Unique:    unique,
			Dur:       dur,
		})

		if len(page.Records) < cursor.PageSize() {
			// Short page: the authoritative exhaustion signal. The
			// advisory Total field is never consulted for this.
			report.Status = catalog.PartitionSucceeded
			break
		}
		if err := cursor.Advance(len(page.Records)); err != nil {
			report.Status = catalog.PartitionFailed
			report.ErrorText = err.Error()
			break
		}
	}

	return f.finish(runID, report)
}

func (f *PartitionFetcher) finish(runID string, report catalog.PartitionReport) catalog.PartitionReport {
	report.Finished = f.clock.Now()
	partitionsByStatus.WithLabelValues(string(report.Status)).Inc()
	f.emitter.Emit(progress.Event{
		RunID:     runID,
		TS:        report.Finished,
		Stage:     progress.StagePartitionDone,
		Partition: report.Partition,
		Records:   report.RecordsFetched,
		Unique:    report.RecordsNew,
		Status:    report.Status,
		Dur:       report.Finished.Sub(report.Started),
		Note:      report.ErrorText,
	})
	return report
}

// fetchPage issues one page request, applying the per-request timeout and
// the retry policy. The returned error wraps the last attempt's failure.
func (f *PartitionFetcher) fetchPage(ctx context.Context, key catalog.PartitionKey, offset int) (SearchPage, time.Duration, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
		start := time.Now()
		page, err := f.client.Search(reqCtx, key, offset, f.cfg.PageSize)
		cancel()
		totalRequests.Inc()
		if err == nil {
			return page, time.Since(start), nil
		}
		totalRequestErrors.Inc()
		lastErr = err

		if ctx.Err() != nil || !f.policy.ShouldRetry(err, attempt+1) {
			return SearchPage{}, 0, &FetchError{
				Partition: key,
				Offset:    offset,
				Attempts:  attempt + 1,
				Err:       lastErr,
			}
		}
		totalRetries.Inc()
		delay := f.policy.Backoff(attempt)
		f.logger.Warn("page fetch failed; retrying",
			zap.String("partition", string(key)),
			zap.Int("offset", offset),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return SearchPage{}, 0, &FetchError{
				Partition: key,
				Offset:    offset,
				Attempts:  attempt + 1,
				Err:       ctx.Err(),
			}
		case <-time.After(delay):
		}
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
