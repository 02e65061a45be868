// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultBatchSize     = 50
	sweepTimeout         = 2 * time.Minute
)

// GrantScheduler periodically retries collaborator grants that are owed
// to buyers: purchases completed by a webhook whose GitHub call failed,
// or whose process crashed between the two writes.
type GrantScheduler struct {
	retryGrantsUC *purchaseUsecases.RetryPendingGrantsUseCase
	logger        logger.Interface
	stopChan      chan struct{}
	stopOnce      sync.Once      // Ensures Stop() is only called once
	wg            sync.WaitGroup // Tracks running goroutines for graceful shutdown
	interval      time.Duration
	batchSize     int
}

func NewGrantScheduler(
	retryGrantsUC *purchaseUsecases.RetryPendingGrantsUseCase,
	interval time.Duration,
	batchSize int,
	logger logger.Interface,
) *GrantScheduler {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &GrantScheduler{
		retryGrantsUC: retryGrantsUC,
		logger:        logger,
		stopChan:      make(chan struct{}),
		interval:      interval,
		batchSize:     batchSize,
	}
}

// Start starts the scheduler and returns immediately.
func (s *GrantScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting grant scheduler",
		"interval", s.interval,
		"batch_size", s.batchSize,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweepLoop(ctx)
	}()
}

// Stop stops the scheduler gracefully and waits for all goroutines to complete.
// Safe to call multiple times - only the first call will actually stop the scheduler.
func (s *GrantScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping grant scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("grant scheduler stopped")
	})
}

func (s *GrantScheduler) runSweepLoop(ctx context.Context) {
	// Run immediately on startup to recover anything owed from a crash
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("grant scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *GrantScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.retryGrantsUC.Execute(sweepCtx, s.batchSize)
	if err != nil {
		// Partial progress is logged by the use case; a cancelled sweep
		// during shutdown is not an error.
		if ctx.Err() != nil {
			return
		}
		s.logger.Errorw("pending grant sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if result.Checked > 0 {
		s.logger.Debugw("pending grant sweep completed",
			"checked", result.Checked,
			"granted", result.Granted,
			"duration", time.Since(startTime),
		)
	}
}
