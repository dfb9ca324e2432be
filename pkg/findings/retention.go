package findings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner removes runs older than a cutoff. *Store satisfies it.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler runs the retention job on a cron schedule.
type Scheduler struct {
	pruner    Pruner
	cron      *cron.Cron
	schedule  string
	retention time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a retention scheduler from the store
// configuration.
func NewScheduler(pruner Pruner, config *Config, logger *slog.Logger) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner:    pruner,
		cron:      cron.New(),
		schedule:  config.PruneSchedule,
		retention: time.Duration(config.RetentionDays) * 24 * time.Hour,
		logger:    logger,
	}
}

// Start registers the retention job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("retention scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"retention", s.retention,
	)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// RunNow executes the retention job immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	return s.pruner.Prune(ctx, cutoff)
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("retention job failed", "error", err)
		return
	}
	s.logger.Debug("retention job completed", "removed", removed)
}
