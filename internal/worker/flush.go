package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
	"github.com/shane-ufo/fruit-merge-backend/internal/postgres"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

// FlushWorker periodically writes the Redis hot state back to
// PostgreSQL. Friend links, usernames and payments are written to
// PostgreSQL synchronously at operation time; the worker covers board
// scores and the aggregate counters, which only live in Redis between
// cycles.
type FlushWorker struct {
	redis    *redis.Store
	postgres *postgres.Repository
	config   *config.FlushConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool

	// flushMu serializes FlushNow against the ticker cycle.
	flushMu sync.Mutex
}

// NewFlushWorker creates a new flush worker
func NewFlushWorker(
	store *redis.Store,
	repo *postgres.Repository,
	cfg *config.FlushConfig,
	logger *slog.Logger,
) *FlushWorker {
	return &FlushWorker{
		redis:    store,
		postgres: repo,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background flush process
func (w *FlushWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("flush worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the worker after one final flush so nothing in the
// write-behind window is lost on shutdown.
func (w *FlushWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.FlushNow(ctx); err != nil {
		w.logger.Error("final flush failed", "error", err)
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("flush worker stopped")
	return nil
}

// run is the main worker loop
func (w *FlushWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.FlushNow(ctx); err != nil {
				w.logger.Error("flush cycle failed", "error", err)
			}
		}
	}
}

// FlushNow runs a single flush cycle. Payments call this directly so
// money never sits in the write-behind window.
func (w *FlushWorker) FlushNow(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	startTime := time.Now()

	boards := w.activeBoards(ctx)
	flushed := 0
	var firstErr error

	for _, board := range boards {
		if err := w.flushBoard(ctx, board); err != nil {
			w.logger.Error("failed to flush board", "board", string(board), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		flushed++
	}

	if err := w.flushCounters(ctx); err != nil {
		w.logger.Error("failed to flush counters", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	w.logger.Info("flush cycle completed",
		"duration", time.Since(startTime),
		"boards", flushed,
	)
	return firstErr
}

// activeBoards lists the boards that receive writes: the fixed boards
// plus the current weekly bucket. Past weeks were flushed while active.
func (w *FlushWorker) activeBoards(ctx context.Context) []domain.Board {
	week, err := w.redis.CurrentWeek(ctx)
	if err != nil || week == "" {
		week = domain.CurrentWeekKey(time.Now())
	}
	return []domain.Board{
		domain.BoardGlobal,
		domain.WeeklyBoard(week),
		domain.BoardAllTime,
	}
}

func (w *FlushWorker) flushBoard(ctx context.Context, board domain.Board) error {
	scores, err := w.redis.GetAllScores(ctx, board)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}

	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	batch := make(map[string]int64, batchSize)
	for playerID, score := range scores {
		batch[playerID] = score
		if len(batch) >= batchSize {
			if err := w.postgres.BatchUpsertScores(ctx, board, batch); err != nil {
				return err
			}
			batch = make(map[string]int64, batchSize)
		}
	}
	if len(batch) > 0 {
		if err := w.postgres.BatchUpsertScores(ctx, board, batch); err != nil {
			return err
		}
	}

	w.logger.Debug("flushed board", "board", string(board), "player_count", len(scores))
	return nil
}

func (w *FlushWorker) flushCounters(ctx context.Context) error {
	counters, err := w.redis.RawStats(ctx)
	if err != nil {
		return err
	}
	return w.postgres.SaveCounters(ctx, counters)
}

// RestoreFromDatabase reloads the Redis hot state from PostgreSQL. Runs
// once at startup so a fresh Redis instance picks up where the last
// process left off.
func (w *FlushWorker) RestoreFromDatabase(ctx context.Context) error {
	w.logger.Info("restoring hot state from database")

	boards, err := w.postgres.KnownBoards(ctx)
	if err != nil {
		return err
	}
	for _, board := range boards {
		scores, err := w.postgres.GetAllScores(ctx, board)
		if err != nil {
			w.logger.Error("failed to load board", "board", string(board), "error", err)
			continue
		}
		if len(scores) == 0 {
			continue
		}
		if err := w.redis.BatchSetScores(ctx, board, scores); err != nil {
			w.logger.Error("failed to restore board", "board", string(board), "error", err)
		}
	}

	friends, err := w.postgres.AllFriendPairs(ctx)
	if err != nil {
		return err
	}
	if err := w.redis.RestoreFriends(ctx, friends); err != nil {
		return err
	}

	usernames, err := w.postgres.AllUsernames(ctx)
	if err != nil {
		return err
	}
	if err := w.redis.RestoreUsernames(ctx, usernames); err != nil {
		return err
	}

	counters, err := w.postgres.LoadCounters(ctx)
	if err != nil {
		return err
	}
	if err := w.redis.RestoreStats(ctx, counters); err != nil {
		return err
	}

	// Seed the week key so the first flush targets the right bucket.
	if stored, err := w.redis.CurrentWeek(ctx); err == nil && stored == "" {
		if err := w.redis.SetCurrentWeek(ctx, domain.CurrentWeekKey(time.Now())); err != nil {
			w.logger.Warn("failed to seed week key", "error", err)
		}
	}

	w.logger.Info("hot state restored", "boards", len(boards))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *FlushWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
