package harvest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

type staticEnum struct {
	keys []catalog.PartitionKey
	err  error
}

func (e staticEnum) Enumerate(context.Context) ([]catalog.PartitionKey, error) {
	return e.keys, e.err
}

type captureSink struct {
	records []catalog.DatasetRecord
	written int
	err     error
	calls   int
}

func (s *captureSink) WriteRecords(_ context.Context, records []catalog.DatasetRecord) (int, error) {
	s.calls++
	s.records = records
	if s.err != nil {
		return s.written, s.err
	}
	return len(records), nil
}

type captureReportStore struct {
	summaries []catalog.RunSummary
	err       error
}

func (s *captureReportStore) StoreRun(_ context.Context, summary catalog.RunSummary) error {
	s.summaries = append(s.summaries, summary)
	return s.err
}

type capturePublisher struct {
	topics   []string
	payloads []any
	err      error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "msg-1", p.err
}

type fixedIDGen struct{}

func (fixedIDGen) NewID() (string, error) { return "run-test", nil }

func newTestHarvester(portal *fakePortal, keys []catalog.PartitionKey, sink ResultSink, reports ReportStore, pub Publisher, topic string) *Harvester {
	return NewHarvester(
		staticEnum{keys: keys},
		portal,
		fastPolicy(3),
		sink,
		reports,
		pub,
		nil,
		fixedIDGen{},
		nil,
		Config{PageSize: 500, Concurrency: 2, Topic: topic},
		nil,
	)
}

func TestHarvesterRunWritesDeduplicatedSet(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	portal.addPartition("cc-by", 0, 1200)
	portal.addPartition("cc-zero", 900, 1200)

	sink := &captureSink{}
	reports := &captureReportStore{}
	pub := &capturePublisher{}
	h := newTestHarvester(portal, []catalog.PartitionKey{"cc-by", "cc-zero"}, sink, reports, pub, "harvest-events")

	summary, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, "run-test", summary.RunID)
	require.Equal(t, 2100, summary.UniqueRecords)
	require.Equal(t, 2100, summary.RecordsWritten)
	require.Len(t, summary.Partitions, 2)
	require.Zero(t, summary.Failed())
	require.Zero(t, summary.Partial())

	require.Equal(t, 1, sink.calls)
	require.Len(t, sink.records, 2100)

	require.Len(t, reports.summaries, 1)
	require.Equal(t, "run-test", reports.summaries[0].RunID)

	require.Equal(t, []string{"harvest-events"}, pub.topics)
	payload, ok := pub.payloads[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 2100, payload["unique_records"])
}

func TestHarvesterEnumerationFailureAbortsRun(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	h := NewHarvester(
		staticEnum{err: errors.New("portal unreachable")},
		newFakePortal(),
		fastPolicy(3),
		sink,
		nil, nil, nil,
		fixedIDGen{},
		nil,
		Config{},
		nil,
	)

	_, err := h.Run(context.Background())
	var enumErr *EnumerationError
	require.ErrorAs(t, err, &enumErr)
	require.Zero(t, sink.calls)
}

func TestHarvesterEmptyEnumerationIsFatal(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	h := newTestHarvester(newFakePortal(), nil, sink, nil, nil, "")

	_, err := h.Run(context.Background())
	var enumErr *EnumerationError
	require.ErrorAs(t, err, &enumErr)
	require.ErrorIs(t, err, ErrNoPartitions)
	require.Zero(t, sink.calls)
}

func TestHarvesterFlushesDespiteFailedPartition(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	portal.addPartition("cc-by", 0, 400)
	portal.addPartition("cc-zero", 1000, 300)
	portal.failTimes("cc-zero", 0, 10)

	sink := &captureSink{}
	h := newTestHarvester(portal, []catalog.PartitionKey{"cc-by", "cc-zero"}, sink, nil, nil, "")

	summary, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, summary.Failed())
	require.Equal(t, 400, summary.UniqueRecords)
	require.Len(t, sink.records, 400)
}

func TestHarvesterSinkFailurePropagates(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	portal.addPartition("cc-by", 0, 100)

	sink := &captureSink{err: errors.New("disk full"), written: 40}
	h := newTestHarvester(portal, []catalog.PartitionKey{"cc-by"}, sink, nil, nil, "")

	summary, err := h.Run(context.Background())
	require.ErrorContains(t, err, "write records")
	require.Equal(t, 100, summary.UniqueRecords)
	require.Equal(t, 40, summary.RecordsWritten)
}

func TestHarvesterReportAndPublishFailuresAreBestEffort(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	portal.addPartition("cc-by", 0, 100)

	reports := &captureReportStore{err: errors.New("db down")}
	pub := &capturePublisher{err: errors.New("broker down")}
	sink := &captureSink{}
	h := newTestHarvester(portal, []catalog.PartitionKey{"cc-by"}, sink, reports, pub, "harvest-events")

	summary, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 100, summary.UniqueRecords)
}

func TestHarvesterSkipsPublishWithoutTopic(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	portal.addPartition("cc-by", 0, 50)

	pub := &capturePublisher{}
	sink := &captureSink{}
	h := newTestHarvester(portal, []catalog.PartitionKey{"cc-by"}, sink, nil, pub, "")

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, pub.topics)
}
