package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 20
)

// NormalizeUsername lowercases and trims a requested name. Returns
// ErrInvalidUsername when the result is out of bounds or contains
// characters outside [a-z0-9_].
func NormalizeUsername(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if len(normalized) < usernameMinLen || len(normalized) > usernameMaxLen {
		return "", domain.ErrInvalidUsername
	}
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return "", domain.ErrInvalidUsername
		}
	}
	return normalized, nil
}

// CheckUsername reports whether a name is free for the given player.
// A name the player already owns counts as available.
func (s *GameService) CheckUsername(ctx context.Context, playerID, name string) (string, bool, error) {
	normalized, err := NormalizeUsername(name)
	if err != nil {
		return "", false, err
	}

	owner, err := s.redis.UsernameOwner(ctx, normalized)
	if err != nil {
		return normalized, false, err
	}
	return normalized, owner == "" || owner == playerID, nil
}

// RegisterUsername claims a unique name for a player, releasing any name
// the player held before. The new name is pushed onto the player's
// leaderboard card so existing rows pick it up immediately.
func (s *GameService) RegisterUsername(ctx context.Context, playerID, name string) (string, error) {
	if playerID == "" {
		return "", domain.ErrMissingPlayerID
	}

	normalized, available, err := s.CheckUsername(ctx, playerID, name)
	if err != nil {
		return "", err
	}
	if !available {
		return "", domain.ErrUsernameTaken
	}

	if err := s.redis.ClaimUsername(ctx, playerID, normalized); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return "", domain.ErrUsernameTaken
		}
		return "", fmt.Errorf("claiming username: %w", err)
	}
	if err := s.postgres.SetUsername(ctx, playerID, normalized); err != nil {
		return "", fmt.Errorf("persisting username: %w", err)
	}

	// The registered name is the new display name; push it onto the
	// player's card so rows already on the boards show it.
	if err := s.redis.RenamePlayer(ctx, playerID, normalized); err != nil {
		s.logger.Warn("failed to rename player card", "player_id", playerID, "error", err)
	}
	return normalized, nil
}

// AddFriend creates a symmetric friend link. Idempotent.
func (s *GameService) AddFriend(ctx context.Context, playerID, friendID string) error {
	if playerID == "" || friendID == "" {
		return domain.ErrMissingPlayerID
	}
	if playerID == friendID {
		return domain.ErrSelfFriend
	}

	if err := s.redis.AddFriends(ctx, playerID, friendID); err != nil {
		return err
	}
	if err := s.postgres.InsertFriends(ctx, playerID, friendID); err != nil {
		s.logger.Warn("failed to persist friend link", "error", err)
	}
	return nil
}

// Friends returns a player's friend ids.
func (s *GameService) Friends(ctx context.Context, playerID string) ([]string, error) {
	if playerID == "" {
		return nil, domain.ErrMissingPlayerID
	}
	return s.redis.Friends(ctx, playerID)
}

// Referral links a newly arrived player to the referrer encoded in the
// bot's start parameter. Self-referrals are silently ignored.
func (s *GameService) Referral(ctx context.Context, playerID, referrerID, playerName string) error {
	if playerID == "" || referrerID == "" || playerID == referrerID {
		return nil
	}

	if err := s.AddFriend(ctx, playerID, referrerID); err != nil {
		return err
	}
	s.recordActivity(ctx, domain.ActivityEvent{
		Type:     domain.ActivityReferral,
		PlayerID: playerID,
		Name:     playerName,
		Detail:   referrerID,
	})
	return nil
}
