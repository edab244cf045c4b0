package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

// WeekRoller advances the weekly leaderboard bucket when the ISO week
// changes. The game service implements it.
type WeekRoller interface {
	RolloverWeek(ctx context.Context) (bool, error)
}

// MaintenanceWorker runs the periodic housekeeping: the presence sweep
// and the weekly rollover check.
type MaintenanceWorker struct {
	redis    *redis.Store
	roller   WeekRoller
	presence *config.PresenceConfig
	rollover time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewMaintenanceWorker creates a new maintenance worker
func NewMaintenanceWorker(
	store *redis.Store,
	roller WeekRoller,
	presence *config.PresenceConfig,
	rolloverCheck time.Duration,
	logger *slog.Logger,
) *MaintenanceWorker {
	return &MaintenanceWorker{
		redis:    store,
		roller:   roller,
		presence: presence,
		rollover: rolloverCheck,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background maintenance loops
func (w *MaintenanceWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("maintenance worker started",
		"sweep_interval", w.presence.SweepInterval,
		"rollover_check", w.rollover,
	)

	go w.run(ctx)
	return nil
}

// Stop stops the maintenance loops
func (w *MaintenanceWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("maintenance worker stopped")
	return nil
}

func (w *MaintenanceWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	sweepTicker := time.NewTicker(w.presence.SweepInterval)
	defer sweepTicker.Stop()

	rolloverTicker := time.NewTicker(w.rollover)
	defer rolloverTicker.Stop()

	// Catch a week boundary crossed while the process was down.
	w.checkRollover(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-sweepTicker.C:
			w.sweep(ctx)
		case <-rolloverTicker.C:
			w.checkRollover(ctx)
		}
	}
}

func (w *MaintenanceWorker) sweep(ctx context.Context) {
	evicted, err := w.redis.SweepPresence(ctx, w.presence.TTL)
	if err != nil {
		w.logger.Error("presence sweep failed", "error", err)
		return
	}
	if evicted > 0 {
		w.logger.Debug("presence sweep evicted players", "count", evicted)
	}
}

func (w *MaintenanceWorker) checkRollover(ctx context.Context) {
	if _, err := w.roller.RolloverWeek(ctx); err != nil {
		w.logger.Error("week rollover check failed", "error", err)
	}
}
