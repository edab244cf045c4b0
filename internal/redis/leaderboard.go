package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// SubmitScore records a score on a board, keeping the best value per
// player. The display card is refreshed regardless of whether the score
// improved. Returns true when the stored score changed.
func (s *Store) SubmitScore(ctx context.Context, board domain.Board, sub domain.ScoreSubmission, capacity int) (bool, error) {
	key := s.boardKey(board)

	// Always refresh name/avatar/cosmetics so renames reach old rows.
	if err := s.SetPlayerCard(ctx, sub.PlayerID, sub.Profile, sub.Cosmetics); err != nil {
		return false, err
	}

	// Get current score
	currentScore, err := s.client.ZScore(ctx, key, sub.PlayerID).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("getting current score: %w", err)
	}

	// Scores are monotonically non-decreasing: replace only if strictly
	// greater, insert if absent.
	if err != redis.Nil && float64(sub.Score) <= currentScore {
		return false, nil
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(sub.Score), Member: sub.PlayerID})
	if capacity > 0 {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-capacity-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("setting score: %w", err)
	}
	return true, nil
}

// SetPlayerCard caches the display fields attached to leaderboard rows.
func (s *Store) SetPlayerCard(ctx context.Context, playerID string, profile domain.Profile, cosmetics domain.Cosmetics) error {
	err := s.client.HSet(ctx, s.cardKey(playerID),
		"name", profile.Name,
		"avatar", profile.Avatar,
		"vip", strconv.FormatBool(cosmetics.VIP),
		"name_color", cosmetics.NameColor,
		"updated_at", strconv.FormatInt(time.Now().Unix(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("setting player card: %w", err)
	}
	return nil
}

// RenamePlayer updates only the display name on a player's card, so
// rows already on the boards show the new name on the next read.
func (s *Store) RenamePlayer(ctx context.Context, playerID, name string) error {
	err := s.client.HSet(ctx, s.cardKey(playerID),
		"name", name,
		"updated_at", strconv.FormatInt(time.Now().Unix(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("renaming player card: %w", err)
	}
	return nil
}

// GetTopN returns the top N rows of a board (descending order).
func (s *Store) GetTopN(ctx context.Context, board domain.Board, n int) ([]domain.LeaderboardEntry, error) {
	key := s.boardKey(board)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}
	return s.hydrateEntries(ctx, results, 0)
}

// GetRank returns a player's 1-based rank and score on a board.
func (s *Store) GetRank(ctx context.Context, board domain.Board, playerID string) (*domain.RankInfo, error) {
	key := s.boardKey(board)

	// Use pipeline to get both rank and score
	pipe := s.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, playerID)
	scoreCmd := pipe.ZScore(ctx, key, playerID)
	_, err := pipe.Exec(ctx)

	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting rank result: %w", err)
	}

	score, err := scoreCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting score result: %w", err)
	}

	oneBased := rank + 1
	return &domain.RankInfo{
		PlayerID: playerID,
		Rank:     &oneBased,
		Score:    int64(score),
	}, nil
}

// GetAllScores returns every (player, score) pair of a board. The flush
// worker uses this for the Postgres writeback.
func (s *Store) GetAllScores(ctx context.Context, board domain.Board) (map[string]int64, error) {
	key := s.boardKey(board)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting all scores: %w", err)
	}
	scores := make(map[string]int64, len(results))
	for _, result := range results {
		scores[result.Member.(string)] = int64(result.Score)
	}
	return scores, nil
}

// GetCount returns the number of players on a board.
func (s *Store) GetCount(ctx context.Context, board domain.Board) (int64, error) {
	count, err := s.client.ZCard(ctx, s.boardKey(board)).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// ResetBoard clears all entries from a board.
func (s *Store) ResetBoard(ctx context.Context, board domain.Board) error {
	if err := s.client.Del(ctx, s.boardKey(board)).Err(); err != nil {
		return fmt.Errorf("resetting board: %w", err)
	}
	return nil
}

// BatchSetScores sets multiple scores using pipelining (recovery sync).
func (s *Store) BatchSetScores(ctx context.Context, board domain.Board, scores map[string]int64) error {
	key := s.boardKey(board)
	pipe := s.client.Pipeline()
	for playerID, score := range scores {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: playerID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("batch setting scores: %w", err)
	}
	return nil
}

// FilterMembers keeps only the board rows whose player is in keep,
// preserving board order, capped at limit. This backs the friends view.
func (s *Store) FilterMembers(ctx context.Context, board domain.Board, keep map[string]bool, limit int) ([]domain.LeaderboardEntry, error) {
	key := s.boardKey(board)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting board for filter: %w", err)
	}

	filtered := make([]redis.Z, 0, limit)
	ranks := make([]int64, 0, limit)
	for i, result := range results {
		if keep[result.Member.(string)] {
			filtered = append(filtered, result)
			ranks = append(ranks, int64(i+1))
			if len(filtered) >= limit {
				break
			}
		}
	}

	entries, err := s.hydrateEntries(ctx, filtered, 0)
	if err != nil {
		return nil, err
	}
	// Keep the full-board rank, not the filtered position.
	for i := range entries {
		entries[i].Rank = ranks[i]
	}
	return entries, nil
}

// hydrateEntries joins sorted-set rows with player display cards.
func (s *Store) hydrateEntries(ctx context.Context, results []redis.Z, rankOffset int) ([]domain.LeaderboardEntry, error) {
	if len(results) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(results))
	for i, result := range results {
		cmds[i] = pipe.HGetAll(ctx, s.cardKey(result.Member.(string)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("hydrating entries: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, result := range results {
		card := cmds[i].Val()
		updated, _ := strconv.ParseInt(card["updated_at"], 10, 64)
		entries[i] = domain.LeaderboardEntry{
			Rank:      int64(rankOffset + i + 1),
			PlayerID:  result.Member.(string),
			Name:      card["name"],
			Avatar:    card["avatar"],
			Score:     int64(result.Score),
			VIP:       card["vip"] == "true",
			NameColor: card["name_color"],
			UpdatedAt: time.Unix(updated, 0).UTC(),
		}
	}
	return entries, nil
}
