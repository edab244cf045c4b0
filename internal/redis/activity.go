package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// AppendActivity pushes an event onto the recent-activity ring,
// trimming it to the cap.
func (s *Store) AppendActivity(ctx context.Context, event domain.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling activity event: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, activityKey, data)
	pipe.LTrim(ctx, activityKey, 0, domain.ActivityLogCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

// RecentActivity returns up to n events, newest first.
func (s *Store) RecentActivity(ctx context.Context, n int) ([]domain.ActivityEvent, error) {
	if n <= 0 || n > domain.ActivityLogCap {
		n = domain.ActivityLogCap
	}
	raw, err := s.client.LRange(ctx, activityKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading activity: %w", err)
	}

	events := make([]domain.ActivityEvent, 0, len(raw))
	for _, item := range raw {
		var event domain.ActivityEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			s.logger.Warn("skipping malformed activity entry", "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Stat counter fields.
const (
	StatTotalPlayers  = "total_players"
	StatGamesStarted  = "games_started"
	StatGamesFinished = "games_finished"
	StatPaymentCount  = "payment_count"
	StatTotalRevenue  = "total_revenue"
)

// IncrStat bumps one aggregate counter.
func (s *Store) IncrStat(ctx context.Context, field string, delta int64) error {
	if err := s.client.HIncrBy(ctx, statsKey, field, delta).Err(); err != nil {
		return fmt.Errorf("incrementing stat %s: %w", field, err)
	}
	return nil
}

// RawStats reads the counter hash without the online count. The flush
// worker persists this snapshot.
func (s *Store) RawStats(ctx context.Context) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	counters := make(map[string]int64, len(fields))
	for field, raw := range fields {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counters[field] = v
	}
	return counters, nil
}

// RestoreStats reloads persisted counters, keeping whichever value is
// larger so a restart never walks a counter backwards.
func (s *Store) RestoreStats(ctx context.Context, counters map[string]int64) error {
	current, err := s.RawStats(ctx)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	for field, value := range counters {
		if value > current[field] {
			pipe.HSet(ctx, statsKey, field, value)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("restoring stats: %w", err)
	}
	return nil
}

// GetStats reads the aggregate counters plus the live online count.
func (s *Store) GetStats(ctx context.Context) (domain.Stats, error) {
	fields, err := s.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("reading stats: %w", err)
	}

	online, err := s.OnlineCount(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	get := func(field string) int64 {
		v, _ := strconv.ParseInt(fields[field], 10, 64)
		return v
	}
	return domain.Stats{
		TotalPlayers:  get(StatTotalPlayers),
		OnlineNow:     online,
		GamesStarted:  get(StatGamesStarted),
		GamesFinished: get(StatGamesFinished),
		PaymentCount:  get(StatPaymentCount),
		TotalRevenue:  get(StatTotalRevenue),
	}, nil
}
