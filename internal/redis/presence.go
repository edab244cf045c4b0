package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Heartbeat upserts a presence entry and returns the online count. The
// joined-at timestamp is preserved across refreshes.
func (s *Store) Heartbeat(ctx context.Context, playerID string, profile domain.Profile, score int64) (int64, error) {
	now := time.Now().UTC()
	entryKey := s.presenceEntryKey(playerID)

	joined, err := s.client.HGet(ctx, entryKey, "joined_at").Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("reading presence entry: %w", err)
	}
	if err == redis.Nil || joined == "" {
		joined = strconv.FormatInt(now.Unix(), 10)
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, presenceIndexKey, redis.Z{Score: float64(now.Unix()), Member: playerID})
	pipe.HSet(ctx, entryKey,
		"name", profile.Name,
		"joined_at", joined,
		"last_seen", strconv.FormatInt(now.Unix(), 10),
		"score", strconv.FormatInt(score, 10),
	)
	countCmd := pipe.ZCard(ctx, presenceIndexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("recording heartbeat: %w", err)
	}
	return countCmd.Val(), nil
}

// SweepPresence evicts entries older than ttl and returns how many were
// removed. Runs on the 60s timer and lazily before presence reads.
func (s *Store) SweepPresence(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := strconv.FormatInt(time.Now().UTC().Add(-ttl).Unix(), 10)

	stale, err := s.client.ZRangeByScore(ctx, presenceIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("listing stale presence: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	members := make([]interface{}, len(stale))
	for i, playerID := range stale {
		members[i] = playerID
		pipe.Del(ctx, s.presenceEntryKey(playerID))
	}
	pipe.ZRem(ctx, presenceIndexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("evicting stale presence: %w", err)
	}
	return len(stale), nil
}

// OnlinePlayers sweeps lazily and returns the current presence list,
// most recently seen first.
func (s *Store) OnlinePlayers(ctx context.Context, ttl time.Duration) ([]domain.PresenceEntry, error) {
	if _, err := s.SweepPresence(ctx, ttl); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRevRange(ctx, presenceIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing presence: %w", err)
	}
	if len(ids) == 0 {
		return []domain.PresenceEntry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, playerID := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.presenceEntryKey(playerID))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reading presence entries: %w", err)
	}

	entries := make([]domain.PresenceEntry, 0, len(ids))
	for i, playerID := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		joined, _ := strconv.ParseInt(fields["joined_at"], 10, 64)
		seen, _ := strconv.ParseInt(fields["last_seen"], 10, 64)
		score, _ := strconv.ParseInt(fields["score"], 10, 64)
		entries = append(entries, domain.PresenceEntry{
			PlayerID: playerID,
			Name:     fields["name"],
			JoinedAt: time.Unix(joined, 0).UTC(),
			LastSeen: time.Unix(seen, 0).UTC(),
			Score:    score,
		})
	}
	return entries, nil
}

// OnlineCount returns the size of the presence set without hydrating it.
func (s *Store) OnlineCount(ctx context.Context) (int64, error) {
	count, err := s.client.ZCard(ctx, presenceIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting presence: %w", err)
	}
	return count, nil
}
