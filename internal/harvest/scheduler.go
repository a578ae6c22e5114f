package harvest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Scheduler fans partition fetch tasks out to a bounded worker pool. Each
// worker runs one partition to completion before picking up another key. A
// single partition's terminal failure never cancels sibling tasks.
type Scheduler struct {
	fetcher     *PartitionFetcher
	concurrency int
	logger      *zap.Logger
}

// NewScheduler constructs a scheduler. Concurrency defaults to 10.
func NewScheduler(fetcher *PartitionFetcher, concurrency int, logger *zap.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run fetches every partition and returns one report per key, in the keys'
// original order regardless of completion interleaving. On context
// cancellation no new tasks are dispatched; keys never started are reported
// as failed with the cancellation cause.
func (s *Scheduler) Run(ctx context.Context, runID string, keys []catalog.PartitionKey) []catalog.PartitionReport {
	type indexed struct {
		idx    int
		report catalog.PartitionReport
	}

	tasks := make(chan int)
	results := make(chan indexed, len(keys))

	var wg sync.WaitGroup
	workers := min(s.concurrency, len(keys))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				results <- indexed{
					idx:    idx,
					report: s.fetcher.Fetch(ctx, runID, keys[idx]),
				}
			}
		}()
	}

	dispatched := make([]bool, len(keys))
dispatch:
	for idx := range keys {
		select {
		case tasks <- idx:
			dispatched[idx] = true
		case <-ctx.Done():
			s.logger.Warn("stopping dispatch; run context finished", zap.Error(ctx.Err()))
			break dispatch
		}
	}
	close(tasks)
	wg.Wait()
	close(results)

	reports := make([]catalog.PartitionReport, len(keys))
	for res := range results {
		reports[res.idx] = res.report
	}
	for idx, key := range keys {
		if dispatched[idx] {
			continue
		}
		reports[idx] = catalog.PartitionReport{
			Partition: key,
			Status:    catalog.PartitionFailed,
			ErrorText: context.Cause(ctx).Error(),
		}
	}
	return reports
}
