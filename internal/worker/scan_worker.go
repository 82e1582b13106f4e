// Package worker runs the periodic scan loop that chains ingestion and the
// analytics pipeline.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/service"
)

// Ingester pulls exchange data into storage
type Ingester interface {
	Run(ctx context.Context) (*service.IngestResult, error)
}

// Pipeline scores wallets and builds a portfolio snapshot
type Pipeline interface {
	Run(ctx context.Context, asOf time.Time) (*service.PipelineResult, error)
}

// ScanWorker periodically ingests exchange data and reruns the analytics
// pipeline over it.
type ScanWorker struct {
	ingest   Ingester
	pipeline Pipeline
	interval time.Duration

	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastScan time.Time
}

// ScanWorkerConfig holds configuration for a scan worker
type ScanWorkerConfig struct {
	Ingest   Ingester
	Pipeline Pipeline
	Interval time.Duration
}

// NewScanWorker creates a new scan worker
func NewScanWorker(cfg *ScanWorkerConfig) (*ScanWorker, error) {
	if cfg.Ingest == nil {
		return nil, fmt.Errorf("ingest service cannot be nil")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline service cannot be nil")
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 10 * time.Minute
	}
	if interval < time.Minute {
		return nil, fmt.Errorf("scan interval must be at least one minute, got %v", interval)
	}

	return &ScanWorker{
		ingest:   cfg.Ingest,
		pipeline: cfg.Pipeline,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the periodic scan loop. The first scan runs immediately.
func (w *ScanWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("scan worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	log.Info().Dur("interval", w.interval).Msg("starting scan worker")

	go w.loop(ctx)
	return nil
}

// Stop signals the loop to stop and waits for the in-flight scan to finish
func (w *ScanWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("scan worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		log.Info().Msg("scan worker stopped")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("stop timeout")
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning reports whether the worker loop is active
func (w *ScanWorker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// LastScan returns the completion time of the most recent scan
func (w *ScanWorker) LastScan() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastScan
}

func (w *ScanWorker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)

	for {
		select {
		case <-ticker.C:
			w.scan(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *ScanWorker) scan(ctx context.Context) {
	if err := w.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("scan failed")
	}
}

// RunOnce performs a single ingest plus pipeline pass
func (w *ScanWorker) RunOnce(ctx context.Context) error {
	start := time.Now()

	if _, err := w.ingest.Run(ctx); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	asOf := time.Now().UTC()
	if _, err := w.pipeline.Run(ctx, asOf); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	w.mu.Lock()
	w.lastScan = time.Now()
	w.mu.Unlock()

	log.Info().Dur("duration", time.Since(start)).Msg("scan complete")
	return nil
}
