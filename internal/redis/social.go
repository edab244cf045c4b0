package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// AddFriends inserts a symmetric friend link. Idempotent; self-links
// are rejected by the service before reaching here.
func (s *Store) AddFriends(ctx context.Context, a, b string) error {
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, s.friendsKey(a), b)
	pipe.SAdd(ctx, s.friendsKey(b), a)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("adding friends: %w", err)
	}
	return nil
}

// Friends returns a player's adjacency list.
func (s *Store) Friends(ctx context.Context, playerID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.friendsKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	return members, nil
}

// UsernameOwner returns the identity owning a normalized name, or ""
// when the name is free.
func (s *Store) UsernameOwner(ctx context.Context, normalized string) (string, error) {
	owner, err := s.client.HGet(ctx, usernamesKey, normalized).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up username: %w", err)
	}
	return owner, nil
}

// PlayerUsername returns the normalized name a player currently owns.
func (s *Store) PlayerUsername(ctx context.Context, playerID string) (string, error) {
	name, err := s.client.Get(ctx, s.playerUsernameKey(playerID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading player username: %w", err)
	}
	return name, nil
}

// ClaimUsername records ownership of normalized for playerID, releasing
// the player's previous name. The claim itself is a single HSETNX, so
// two concurrent registrations of the same name cannot both succeed;
// the loser gets ErrUsernameTaken.
func (s *Store) ClaimUsername(ctx context.Context, playerID, normalized string) error {
	previous, err := s.PlayerUsername(ctx, playerID)
	if err != nil {
		return err
	}

	set, err := s.client.HSetNX(ctx, usernamesKey, normalized, playerID).Result()
	if err != nil {
		return fmt.Errorf("claiming username: %w", err)
	}
	if !set {
		owner, err := s.UsernameOwner(ctx, normalized)
		if err != nil {
			return err
		}
		if owner != playerID {
			return domain.ErrUsernameTaken
		}
	}

	pipe := s.client.Pipeline()
	if previous != "" && previous != normalized {
		pipe.HDel(ctx, usernamesKey, previous)
	}
	pipe.Set(ctx, s.playerUsernameKey(playerID), normalized, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording username claim: %w", err)
	}
	return nil
}

// AllUsernames returns the full normalized-name → owner mapping for the
// flush worker.
func (s *Store) AllUsernames(ctx context.Context) (map[string]string, error) {
	all, err := s.client.HGetAll(ctx, usernamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing usernames: %w", err)
	}
	return all, nil
}

// RestoreFriends reloads friend adjacency lists from the durable store.
func (s *Store) RestoreFriends(ctx context.Context, pairs map[string][]string) error {
	if len(pairs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for playerID, friends := range pairs {
		members := make([]interface{}, len(friends))
		for i, f := range friends {
			members[i] = f
		}
		pipe.SAdd(ctx, s.friendsKey(playerID), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("restoring friends: %w", err)
	}
	return nil
}

// RestoreUsernames reloads the registry from the durable store.
func (s *Store) RestoreUsernames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for name, owner := range names {
		pipe.HSet(ctx, usernamesKey, name, owner)
		pipe.Set(ctx, s.playerUsernameKey(owner), name, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("restoring usernames: %w", err)
	}
	return nil
}

func (s *Store) playerUsernameKey(playerID string) string {
	return fmt.Sprintf("player:%s:username", playerID)
}
