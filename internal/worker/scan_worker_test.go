package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-radar/internal/service"
)

type fakeIngester struct {
	calls int32
	err   error
}

func (f *fakeIngester) Run(ctx context.Context) (*service.IngestResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &service.IngestResult{}, nil
}

type fakePipeline struct {
	calls int32
	err   error
	asOf  atomic.Value
}

func (f *fakePipeline) Run(ctx context.Context, asOf time.Time) (*service.PipelineResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.asOf.Store(asOf)
	if f.err != nil {
		return nil, f.err
	}
	return &service.PipelineResult{}, nil
}

func TestNewScanWorkerValidation(t *testing.T) {
	_, err := NewScanWorker(&ScanWorkerConfig{Pipeline: &fakePipeline{}})
	assert.Error(t, err)

	_, err = NewScanWorker(&ScanWorkerConfig{Ingest: &fakeIngester{}})
	assert.Error(t, err)

	_, err = NewScanWorker(&ScanWorkerConfig{
		Ingest:   &fakeIngester{},
		Pipeline: &fakePipeline{},
		Interval: time.Second,
	})
	assert.Error(t, err, "sub-minute interval rejected")
}

func TestRunOnceChainsIngestAndPipeline(t *testing.T) {
	ingest := &fakeIngester{}
	pipeline := &fakePipeline{}
	w, err := NewScanWorker(&ScanWorkerConfig{Ingest: ingest, Pipeline: pipeline, Interval: time.Minute})
	require.NoError(t, err)

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&ingest.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&pipeline.calls))
	assert.False(t, w.LastScan().IsZero())
}

func TestRunOnceStopsOnIngestFailure(t *testing.T) {
	ingest := &fakeIngester{err: errors.New("upstream down")}
	pipeline := &fakePipeline{}
	w, err := NewScanWorker(&ScanWorkerConfig{Ingest: ingest, Pipeline: pipeline, Interval: time.Minute})
	require.NoError(t, err)

	err = w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&pipeline.calls), "pipeline should not run on stale data")
	assert.True(t, w.LastScan().IsZero())
}

func TestStartStopLifecycle(t *testing.T) {
	ingest := &fakeIngester{}
	pipeline := &fakePipeline{}
	w, err := NewScanWorker(&ScanWorkerConfig{Ingest: ingest, Pipeline: pipeline, Interval: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "double start rejected")
	assert.True(t, w.IsRunning())

	// The initial scan fires immediately on start.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&pipeline.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())
	assert.Error(t, w.Stop(stopCtx), "double stop rejected")
}
