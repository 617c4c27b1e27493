package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 5 * time.Minute
	sweepTimeout           = 30 * time.Second
)

// ExpirerService purges expired short-term records from stores that do not
// expire keys on their own.
type ExpirerService struct {
	sweeper domain.Sweeper
	logger  *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewExpirerService(sweeper domain.Sweeper, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		sweeper:  sweeper,
		logger:   logger,
		interval: defaultExpirerInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start runs the sweep on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("memory expirer started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				s.RunOnce(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("memory expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer. It is safe to call more than once.
func (s *ExpirerService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// RunOnce performs a single sweep and returns the number of purged records.
func (s *ExpirerService) RunOnce(ctx context.Context) int64 {
	deleted, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("failed to sweep expired memories", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		metrics.SweptEntries.Add(float64(deleted))
		s.logger.Info("swept expired memories", zap.Int64("count", deleted))
	}
	return deleted
}
