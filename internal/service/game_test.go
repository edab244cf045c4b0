package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

func newTestService(t *testing.T) (*GameService, *redis.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := redis.NewStore(&config.RedisConfig{Addr: mr.Addr()}, logger)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewGameService(store, nil, config.DefaultConfig(), logger), store
}

func TestCurrentWeeklyBoardRollsForwardOnRead(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := store.SetCurrentWeek(ctx, "2020-W01"); err != nil {
		t.Fatalf("seeding week: %v", err)
	}

	want := domain.WeeklyBoard(domain.CurrentWeekKey(time.Now()))
	if got := svc.CurrentWeeklyBoard(ctx); got != want {
		t.Errorf("CurrentWeeklyBoard = %q, want the freshly computed %q", got, want)
	}

	stored, err := store.CurrentWeek(ctx)
	if err != nil {
		t.Fatalf("reading stored week: %v", err)
	}
	if stored != want.WeekKey() {
		t.Errorf("stored week = %q, want rolled forward to %q", stored, want.WeekKey())
	}
}

func TestCurrentWeeklyBoardSeedsEmptyKey(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	want := domain.WeeklyBoard(domain.CurrentWeekKey(time.Now()))
	if got := svc.CurrentWeeklyBoard(ctx); got != want {
		t.Errorf("CurrentWeeklyBoard = %q, want %q", got, want)
	}
	if stored, _ := store.CurrentWeek(ctx); stored != want.WeekKey() {
		t.Errorf("stored week = %q, want %q recorded on first read", stored, want.WeekKey())
	}
}
