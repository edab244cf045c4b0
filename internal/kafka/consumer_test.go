package kafka

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

type fakeHandler struct {
	heartbeats []string
	starts     []string
	ends       []domain.ScoreSubmission
}

func (f *fakeHandler) Heartbeat(_ context.Context, playerID string, _ domain.Profile, _ int64) (int64, error) {
	f.heartbeats = append(f.heartbeats, playerID)
	return 1, nil
}

func (f *fakeHandler) GameStarted(_ context.Context, playerID string, _ domain.Profile) error {
	f.starts = append(f.starts, playerID)
	return nil
}

func (f *fakeHandler) GameEnded(_ context.Context, sub domain.ScoreSubmission) (bool, error) {
	f.ends = append(f.ends, sub)
	return true, nil
}

func TestDispatchRoutesEvents(t *testing.T) {
	handler := &fakeHandler{}
	c := &Consumer{handler: handler, logger: slog.Default()}
	ctx := context.Background()

	c.dispatch(ctx, GameEvent{Type: EventHeartbeat, PlayerID: "1", Name: "A", Score: 10})
	c.dispatch(ctx, GameEvent{Type: EventGameStart, PlayerID: "2", Name: "B"})
	c.dispatch(ctx, GameEvent{Type: EventGameEnd, PlayerID: "3", Name: "C", Score: 4200})
	c.dispatch(ctx, GameEvent{Type: "mystery", PlayerID: "4"})

	if len(handler.heartbeats) != 1 || handler.heartbeats[0] != "1" {
		t.Errorf("heartbeats = %v, want [1]", handler.heartbeats)
	}
	if len(handler.starts) != 1 || handler.starts[0] != "2" {
		t.Errorf("starts = %v, want [2]", handler.starts)
	}
	if len(handler.ends) != 1 {
		t.Fatalf("ends = %v, want one submission", handler.ends)
	}
	if handler.ends[0].PlayerID != "3" || handler.ends[0].Score != 4200 {
		t.Errorf("end submission = %+v", handler.ends[0])
	}
	if handler.ends[0].Profile.Name != "C" {
		t.Errorf("end profile = %+v, want name C", handler.ends[0].Profile)
	}
}
