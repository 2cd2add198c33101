package batchprocessor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// BatchProcessorConfig holds configuration for batch processing
type BatchProcessorConfig struct {
	MaxConcurrent int // Max items processed at the same time (default: 1, sequential)
}

// BatchStats summarizes one ProcessAll call
type BatchStats struct {
	Total     int
	Started   int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// NotStarted is the number of items skipped because the context ended first
func (s BatchStats) NotStarted() int {
	return s.Total - s.Started
}

// BatchProcessor runs a function over a list of items with bounded concurrency
type BatchProcessor struct {
	config BatchProcessorConfig
	logger zerolog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(config BatchProcessorConfig, logger zerolog.Logger) *BatchProcessor {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &BatchProcessor{
		config: config,
		logger: logger.With().Str("component", "BatchProcessor").Logger(),
	}
}

// ProcessFunc processes the item at index. A returned error is counted and
// logged by the caller's own means; it never stops the other items.
type ProcessFunc func(ctx context.Context, index int) error

// ProcessAll calls processFunc for indexes 0..total-1, at most MaxConcurrent at
// a time. When ctx ends no new item is started, running items finish and
// ctx.Err() is returned alongside the stats.
func (bp *BatchProcessor) ProcessAll(ctx context.Context, total int, processFunc ProcessFunc) (BatchStats, error) {
	stats := BatchStats{Total: total}
	start := time.Now()

	semaphore := make(chan struct{}, bp.config.MaxConcurrent)
	var wg sync.WaitGroup
	var succeeded, failed int64

	var ctxErr error
schedule:
	for i := 0; i < total; i++ {
		// Check cancellation first so a full semaphore is not raced against ctx.Done
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break schedule
		case semaphore <- struct{}{}:
		}

		stats.Started++
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := processFunc(ctx, index); err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			atomic.AddInt64(&succeeded, 1)
		}(i)
	}

	wg.Wait()

	stats.Succeeded = int(succeeded)
	stats.Failed = int(failed)
	stats.Duration = time.Since(start)

	if ctxErr != nil {
		bp.logger.Info().
			Int("started_items", stats.Started).
			Int("total_items", total).
			Msg("Batch processing interrupted by context cancellation")
	}
	bp.logger.Debug().
		Int("total", total).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("Batch processing completed")

	return stats, ctxErr
}
