package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

// Websocket broadcast channels.
const (
	ChannelPresence    = "presence"
	ChannelLeaderboard = "leaderboard"
	ChannelActivity    = "activity"
)

// Heartbeat refreshes a player's presence and permanent record. Returns
// the number of players currently online.
func (s *GameService) Heartbeat(ctx context.Context, playerID string, profile domain.Profile, score int64) (int64, error) {
	if playerID == "" {
		return 0, domain.ErrMissingPlayerID
	}

	created, err := s.postgres.UpsertPlayerSeen(ctx, playerID, profile)
	if err != nil {
		return 0, fmt.Errorf("upserting player: %w", err)
	}
	if created {
		if err := s.redis.IncrStat(ctx, redis.StatTotalPlayers, 1); err != nil {
			s.logger.Warn("failed to bump player counter", "error", err)
		}
		s.recordActivity(ctx, domain.ActivityEvent{
			Type:     domain.ActivityNewUser,
			PlayerID: playerID,
			Name:     profile.Name,
		})
	}

	online, err := s.redis.Heartbeat(ctx, playerID, profile, score)
	if err != nil {
		return 0, fmt.Errorf("recording heartbeat: %w", err)
	}

	s.broadcast(ChannelPresence, map[string]interface{}{"online": online})
	return online, nil
}

// OnlinePlayers returns the current presence list.
func (s *GameService) OnlinePlayers(ctx context.Context) ([]domain.PresenceEntry, error) {
	return s.redis.OnlinePlayers(ctx, s.config.Presence.TTL)
}

// GameStarted records the start of a round.
func (s *GameService) GameStarted(ctx context.Context, playerID string, profile domain.Profile) error {
	if playerID == "" {
		return domain.ErrMissingPlayerID
	}

	if err := s.redis.IncrStat(ctx, redis.StatGamesStarted, 1); err != nil {
		return fmt.Errorf("counting game start: %w", err)
	}
	if err := s.postgres.IncrementGames(ctx, playerID); err != nil {
		s.logger.Warn("failed to increment games played", "player_id", playerID, "error", err)
	}
	s.recordActivity(ctx, domain.ActivityEvent{
		Type:     domain.ActivityGameStart,
		PlayerID: playerID,
		Name:     profile.Name,
	})
	return nil
}

// GameEnded records the end of a round and submits the final score to
// every board. Returns true when any stored score improved.
func (s *GameService) GameEnded(ctx context.Context, sub domain.ScoreSubmission) (bool, error) {
	if sub.PlayerID == "" {
		return false, domain.ErrMissingPlayerID
	}
	if sub.Score < 0 {
		return false, domain.ErrInvalidRequest
	}

	if err := s.redis.IncrStat(ctx, redis.StatGamesFinished, 1); err != nil {
		return false, fmt.Errorf("counting game end: %w", err)
	}
	s.recordActivity(ctx, domain.ActivityEvent{
		Type:     domain.ActivityGameEnd,
		PlayerID: sub.PlayerID,
		Name:     sub.Profile.Name,
		Amount:   sub.Score,
	})

	return s.SubmitScore(ctx, sub)
}

// SubmitScore applies a score to the global, current weekly and all-time
// boards. Stored scores never decrease.
func (s *GameService) SubmitScore(ctx context.Context, sub domain.ScoreSubmission) (bool, error) {
	if sub.PlayerID == "" {
		return false, domain.ErrMissingPlayerID
	}

	boards := []domain.Board{
		domain.BoardGlobal,
		s.currentWeeklyBoard(ctx),
		domain.BoardAllTime,
	}

	improved := false
	for _, board := range boards {
		changed, err := s.redis.SubmitScore(ctx, board, sub, s.config.Leaderboard.Capacity(board))
		if err != nil {
			return improved, fmt.Errorf("submitting to %s: %w", board, err)
		}
		improved = improved || changed
	}

	if err := s.postgres.RecordHighScore(ctx, sub.PlayerID, sub.Score); err != nil {
		s.logger.Warn("failed to record high score", "player_id", sub.PlayerID, "error", err)
	}

	if improved {
		s.broadcast(ChannelLeaderboard, map[string]interface{}{
			"player_id": sub.PlayerID,
			"score":     sub.Score,
		})
	}
	return improved, nil
}

// Top returns the top rows of a board.
func (s *GameService) Top(ctx context.Context, board domain.Board, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.config.Leaderboard.DefaultLimit
	}
	if limit > s.config.Leaderboard.MaxLimit {
		limit = s.config.Leaderboard.MaxLimit
	}
	return s.redis.GetTopN(ctx, board, limit)
}

// Rank returns a player's position on a board. Players absent from the
// board get a nil rank rather than an error.
func (s *GameService) Rank(ctx context.Context, board domain.Board, playerID string) (*domain.RankInfo, error) {
	if playerID == "" {
		return nil, domain.ErrMissingPlayerID
	}
	info, err := s.redis.GetRank(ctx, board, playerID)
	if domain.IsNotFoundError(err) {
		return &domain.RankInfo{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// CurrentWeeklyBoard resolves the weekly bucket in effect right now.
func (s *GameService) CurrentWeeklyBoard(ctx context.Context) domain.Board {
	return s.currentWeeklyBoard(ctx)
}

// currentWeeklyBoard recomputes the week key and rolls the stored key
// forward when the ISO week has changed, so reads and submits land in
// the new bucket immediately after a boundary instead of waiting for
// the hourly check.
func (s *GameService) currentWeeklyBoard(ctx context.Context) domain.Board {
	computed := domain.CurrentWeekKey(time.Now())
	stored, err := s.redis.CurrentWeek(ctx)
	if err != nil {
		s.logger.Warn("failed to read stored week", "error", err)
		return domain.WeeklyBoard(computed)
	}
	if stored != computed {
		if err := s.redis.SetCurrentWeek(ctx, computed); err != nil {
			s.logger.Warn("failed to roll week forward", "error", err)
		} else if stored != "" {
			s.logger.Info("weekly leaderboard rolled over", "from", stored, "to", computed)
		}
	}
	return domain.WeeklyBoard(computed)
}

// WeekStatus describes the current weekly bucket and its reset time.
func (s *GameService) WeekStatus() domain.WeekStatus {
	return domain.WeekStatusAt(time.Now())
}

// WeekHistory is the archived top list of one past week.
type WeekHistory struct {
	Week    string                    `json:"week"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// History returns the top rows of recent weekly buckets, newest first.
// Weeks with no retained rows are skipped.
func (s *GameService) History(ctx context.Context, limit int) ([]WeekHistory, error) {
	if limit <= 0 || limit > s.config.Leaderboard.DefaultLimit {
		limit = 10
	}

	weeks := domain.RecentWeekKeys(time.Now(), s.config.Leaderboard.HistoryWeeks)
	history := make([]WeekHistory, 0, len(weeks))
	for _, week := range weeks {
		entries, err := s.redis.GetTopN(ctx, domain.WeeklyBoard(week), limit)
		if err != nil {
			return nil, fmt.Errorf("reading week %s: %w", week, err)
		}
		if len(entries) == 0 {
			continue
		}
		history = append(history, WeekHistory{Week: week, Entries: entries})
	}
	return history, nil
}

// FriendsBoard returns the rows of a board restricted to a player's
// friends plus the player, keeping full-board ranks.
func (s *GameService) FriendsBoard(ctx context.Context, board domain.Board, playerID string) ([]domain.LeaderboardEntry, error) {
	if playerID == "" {
		return nil, domain.ErrMissingPlayerID
	}

	friends, err := s.redis.Friends(ctx, playerID)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(friends)+1)
	keep[playerID] = true
	for _, f := range friends {
		keep[f] = true
	}
	return s.redis.FilterMembers(ctx, board, keep, s.config.Leaderboard.FriendsLimit)
}

func (s *GameService) recordActivity(ctx context.Context, event domain.ActivityEvent) {
	event.CreatedAt = time.Now().UTC()
	if err := s.redis.AppendActivity(ctx, event); err != nil {
		s.logger.Warn("failed to append activity", "type", event.Type, "error", err)
		return
	}
	s.broadcast(ChannelActivity, event)
}
