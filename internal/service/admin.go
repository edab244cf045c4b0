package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Dashboard aggregates everything the admin overview shows.
type Dashboard struct {
	Stats      domain.Stats           `json:"stats"`
	Week       domain.WeekStatus      `json:"week"`
	Online     []domain.PresenceEntry `json:"online"`
	Activity   []domain.ActivityEvent `json:"activity"`
	TopSpender []domain.Player        `json:"top_spenders"`
}

// AdminDashboard builds the admin overview.
func (s *GameService) AdminDashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.redis.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	online, err := s.OnlinePlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading presence: %w", err)
	}
	activity, err := s.redis.RecentActivity(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("reading activity: %w", err)
	}
	spenders, err := s.postgres.TopSpenders(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("reading top spenders: %w", err)
	}

	return &Dashboard{
		Stats:      stats,
		Week:       s.WeekStatus(),
		Online:     online,
		Activity:   activity,
		TopSpender: spenders,
	}, nil
}

// Stats returns the aggregate counters.
func (s *GameService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.redis.GetStats(ctx)
}

// ListPlayers returns player records for the admin users view.
func (s *GameService) ListPlayers(ctx context.Context, limit, offset int) ([]domain.Player, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.postgres.ListPlayers(ctx, limit, offset)
}

// GetPlayer returns a single player record.
func (s *GameService) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	if playerID == "" {
		return nil, domain.ErrMissingPlayerID
	}
	return s.postgres.GetPlayer(ctx, playerID)
}

// ListPayments returns the newest settled payments.
func (s *GameService) ListPayments(ctx context.Context, limit int) ([]domain.PaymentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.postgres.RecentPayments(ctx, limit)
}

// ForceSave runs an immediate durable flush.
func (s *GameService) ForceSave(ctx context.Context) error {
	if s.flusher == nil {
		return fmt.Errorf("flush worker is not running")
	}
	return s.flusher.FlushNow(ctx)
}

// ResetWeek clears the current weekly board in both stores. Past weekly
// buckets are untouched.
func (s *GameService) ResetWeek(ctx context.Context) error {
	board := s.currentWeeklyBoard(ctx)
	if err := s.redis.ResetBoard(ctx, board); err != nil {
		return fmt.Errorf("resetting weekly board: %w", err)
	}
	if err := s.postgres.ResetBoard(ctx, board); err != nil {
		return fmt.Errorf("resetting persisted weekly board: %w", err)
	}

	s.logger.Info("weekly board reset", "board", string(board))
	s.broadcast(ChannelLeaderboard, map[string]interface{}{"reset": string(board)})
	return nil
}

// ResetAll wipes both stores completely. The handler has already
// required the typed confirmation string.
func (s *GameService) ResetAll(ctx context.Context) error {
	if err := s.redis.Wipe(ctx); err != nil {
		return fmt.Errorf("wiping redis: %w", err)
	}
	if err := s.postgres.WipeAll(ctx); err != nil {
		return fmt.Errorf("wiping postgres: %w", err)
	}

	s.logger.Warn("all data wiped by admin request")
	return nil
}

// ReportCheat forwards a cheating report to the admin chat.
func (s *GameService) ReportCheat(ctx context.Context, reporterID, suspectID, reason string) error {
	if reporterID == "" || suspectID == "" {
		return domain.ErrMissingPlayerID
	}

	s.logger.Info("cheat report", "reporter", reporterID, "suspect", suspectID, "reason", reason)
	if s.notifier != nil && s.config.Telegram.AdminChatID != 0 {
		text := fmt.Sprintf("Cheat report: player %s reported %s", reporterID, suspectID)
		if reason != "" {
			text += "\nReason: " + reason
		}
		if err := s.notifier.SendMessage(ctx, s.config.Telegram.AdminChatID, text); err != nil {
			return fmt.Errorf("forwarding report: %w", err)
		}
	}
	return nil
}

// RolloverWeek advances the stored week key when the ISO week has
// changed. The previous bucket stays readable as history. Returns true
// when a rollover happened.
func (s *GameService) RolloverWeek(ctx context.Context) (bool, error) {
	current := domain.CurrentWeekKey(time.Now())
	stored, err := s.redis.CurrentWeek(ctx)
	if err != nil {
		return false, fmt.Errorf("reading stored week: %w", err)
	}
	if stored == current {
		return false, nil
	}

	if err := s.redis.SetCurrentWeek(ctx, current); err != nil {
		return false, fmt.Errorf("storing week key: %w", err)
	}
	s.logger.Info("weekly leaderboard rolled over", "from", stored, "to", current)
	s.broadcast(ChannelLeaderboard, map[string]interface{}{"week": current})
	return true, nil
}
