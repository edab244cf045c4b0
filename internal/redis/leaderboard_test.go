package redis

import (
	"context"
	"testing"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

func submission(playerID, name string, score int64) domain.ScoreSubmission {
	return domain.ScoreSubmission{
		PlayerID: playerID,
		Profile:  domain.Profile{Name: name},
		Score:    score,
	}
}

func TestSubmitScoreKeepsBestScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	board := domain.BoardGlobal

	changed, err := store.SubmitScore(ctx, board, submission("42", "Alice", 100), 500)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !changed {
		t.Error("first submit should change the stored score")
	}

	changed, err = store.SubmitScore(ctx, board, submission("42", "Alice", 50), 500)
	if err != nil {
		t.Fatalf("lower submit: %v", err)
	}
	if changed {
		t.Error("lower score must not replace the stored one")
	}

	info, err := store.GetRank(ctx, board, "42")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if info.Score != 100 {
		t.Errorf("score = %d, want 100", info.Score)
	}
	if info.Rank == nil || *info.Rank != 1 {
		t.Errorf("rank = %v, want 1", info.Rank)
	}

	count, err := store.GetCount(ctx, board)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want one entry per player", count)
	}

	changed, err = store.SubmitScore(ctx, board, submission("42", "Alice", 150), 500)
	if err != nil {
		t.Fatalf("higher submit: %v", err)
	}
	if !changed {
		t.Error("higher score should replace the stored one")
	}
}

func TestSubmitScoreTrimsToCapacity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	board := domain.WeeklyBoard("2026-W35")

	players := []struct {
		id    string
		score int64
	}{
		{"1", 10}, {"2", 20}, {"3", 30}, {"4", 40}, {"5", 50},
	}
	for _, p := range players {
		if _, err := store.SubmitScore(ctx, board, submission(p.id, "P"+p.id, p.score), 3); err != nil {
			t.Fatalf("submit %s: %v", p.id, err)
		}
	}

	count, err := store.GetCount(ctx, board)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want capacity 3", count)
	}

	top, err := store.GetTopN(ctx, board, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	wantOrder := []string{"5", "4", "3"}
	if len(top) != len(wantOrder) {
		t.Fatalf("top returned %d rows, want %d", len(top), len(wantOrder))
	}
	for i, want := range wantOrder {
		if top[i].PlayerID != want {
			t.Errorf("top[%d] = %s, want %s", i, top[i].PlayerID, want)
		}
		if top[i].Rank != int64(i+1) {
			t.Errorf("top[%d].Rank = %d, want %d", i, top[i].Rank, i+1)
		}
	}
}

func TestRenamePlayerReachesBoardRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	board := domain.BoardGlobal

	if _, err := store.SubmitScore(ctx, board, submission("7", "OldName", 300), 500); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := store.RenamePlayer(ctx, "7", "neo"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	top, err := store.GetTopN(ctx, board, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("top returned %d rows, want 1", len(top))
	}
	if top[0].Name != "neo" {
		t.Errorf("board row name = %q, want the registered name %q", top[0].Name, "neo")
	}
}

func TestFilterMembersKeepsBoardRanks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	board := domain.BoardGlobal

	for i, id := range []string{"1", "2", "3", "4"} {
		score := int64(40 - i*10)
		if _, err := store.SubmitScore(ctx, board, submission(id, "P"+id, score), 500); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	entries, err := store.FilterMembers(ctx, board, map[string]bool{"2": true, "4": true}, 50)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("filtered %d rows, want 2", len(entries))
	}
	if entries[0].PlayerID != "2" || entries[0].Rank != 2 {
		t.Errorf("entries[0] = %s rank %d, want player 2 at full-board rank 2", entries[0].PlayerID, entries[0].Rank)
	}
	if entries[1].PlayerID != "4" || entries[1].Rank != 4 {
		t.Errorf("entries[1] = %s rank %d, want player 4 at full-board rank 4", entries[1].PlayerID, entries[1].Rank)
	}
}
