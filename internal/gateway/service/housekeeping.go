package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/robfig/cron/v3"
)

// DefaultHousekeepingSchedule purges expired tokens at the top of every hour.
const DefaultHousekeepingSchedule = "0 * * * *"

// HousekeepingService purges expired tokens on a cron schedule so the
// token table does not grow without bound under the random strategy.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	now     func() time.Time
}

// NewHousekeepingService creates the service. An empty schedule disables
// it; Start then does nothing.
func NewHousekeepingService(s store.Store, logger *slog.Logger, schedule string) *HousekeepingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{
		Store:    s,
		Logger:   logger.With("component", "housekeeping"),
		Schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start validates the schedule and begins running cleanups. It does not
// block. Call Stop to shut down.
func (s *HousekeepingService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Schedule == "" {
		s.Logger.Info("housekeeping schedule not configured, skipping")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("invalid housekeeping schedule %q: %w", s.Schedule, err)
	}
	if _, err := s.cron.AddFunc(s.Schedule, func() { _, _ = s.Cleanup(ctx) }); err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.Logger.Info("housekeeping service started", "schedule", s.Schedule)
	return nil
}

// Stop waits for a running cleanup to finish.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.Logger.Info("housekeeping service stopped")
}

// NextRun is the next scheduled cleanup, or nil when not running.
func (s *HousekeepingService) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// Cleanup deletes tokens that have already expired.
func (s *HousekeepingService) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.Store.Tokens().DeleteExpiredTokens(ctx, s.now().UTC())
	if err != nil {
		s.Logger.Error("failed to delete expired tokens", "error", err)
		return 0, err
	}

	if n > 0 {
		s.Logger.Info("housekeeping cleanup completed", "deleted_tokens", n)
	} else {
		s.Logger.Debug("housekeeping cleanup completed, nothing expired")
	}
	return n, nil
}
