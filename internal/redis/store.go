package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Store provides Redis-backed hot state: leaderboards, presence,
// friends, usernames, the activity ring and aggregate counters.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore creates a new Redis store
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *Store) Client() *redis.Client {
	return s.client
}

// boardKey returns the sorted-set key for a leaderboard
func (s *Store) boardKey(board domain.Board) string {
	return fmt.Sprintf("board:%s", board)
}

// cardKey returns the key for a player's display card (name, avatar,
// cosmetics shown on every board)
func (s *Store) cardKey(playerID string) string {
	return fmt.Sprintf("player:%s:card", playerID)
}

// presenceEntryKey returns the key for one online-presence hash
func (s *Store) presenceEntryKey(playerID string) string {
	return fmt.Sprintf("presence:%s", playerID)
}

// friendsKey returns the adjacency-set key for a player
func (s *Store) friendsKey(playerID string) string {
	return fmt.Sprintf("friends:%s", playerID)
}

const (
	presenceIndexKey = "presence:index"
	usernamesKey     = "usernames"
	activityKey      = "activity:log"
	statsKey         = "stats:counters"
	currentWeekKey   = "week:current"
)

// CurrentWeek returns the stored current week key, or "" when unset.
func (s *Store) CurrentWeek(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, currentWeekKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting current week: %w", err)
	}
	return val, nil
}

// SetCurrentWeek records the active weekly bucket key.
func (s *Store) SetCurrentWeek(ctx context.Context, week string) error {
	if err := s.client.Set(ctx, currentWeekKey, week, 0).Err(); err != nil {
		return fmt.Errorf("setting current week: %w", err)
	}
	return nil
}

// Wipe removes every key in the store. Only the admin full reset uses
// this.
func (s *Store) Wipe(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("wiping store: %w", err)
	}
	return nil
}
