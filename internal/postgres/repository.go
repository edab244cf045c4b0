package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Repository provides PostgreSQL-based durable storage behind the Redis
// hot store.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			avatar VARCHAR(16) NOT NULL DEFAULT '',
			username VARCHAR(64) NOT NULL DEFAULT '',
			first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			games_played BIGINT NOT NULL DEFAULT 0,
			high_score BIGINT NOT NULL DEFAULT 0,
			total_spent BIGINT NOT NULL DEFAULT 0,
			stars_balance BIGINT NOT NULL DEFAULT 0,
			vip BOOLEAN NOT NULL DEFAULT FALSE,
			name_color VARCHAR(16) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL,
			amount BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			payload TEXT NOT NULL,
			charge_id VARCHAR(128) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS board_scores (
			board VARCHAR(64) NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			score BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (board, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS friends (
			player_id VARCHAR(64) NOT NULL,
			friend_id VARCHAR(64) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (player_id, friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS usernames (
			name VARCHAR(64) PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS counters (
			key VARCHAR(64) PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_board_scores_score ON board_scores(board, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_player ON payments(player_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_players_spent ON players(total_spent DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// UpsertPlayerSeen creates or refreshes a player row from a heartbeat.
// Returns true when the player was created.
func (r *Repository) UpsertPlayerSeen(ctx context.Context, playerID string, profile domain.Profile) (bool, error) {
	query := `
		INSERT INTO players (id, name, avatar, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, avatar = $3, last_seen = $4
		RETURNING (xmax = 0)
	`
	var created bool
	err := r.pool.QueryRow(ctx, query, playerID, profile.Name, profile.Avatar, time.Now().UTC()).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upserting player: %w", err)
	}
	return created, nil
}

// GetPlayer returns a player row.
func (r *Repository) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	query := `
		SELECT id, name, avatar, username, first_seen, last_seen,
		       games_played, high_score, total_spent, stars_balance, vip, name_color
		FROM players
		WHERE id = $1
	`
	var p domain.Player
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&p.ID, &p.Name, &p.Avatar, &p.Username, &p.FirstSeen, &p.LastSeen,
		&p.GamesPlayed, &p.HighScore, &p.TotalSpent, &p.StarsBalance, &p.VIP, &p.NameColor,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

// ListPlayers returns players ordered by last activity.
func (r *Repository) ListPlayers(ctx context.Context, limit, offset int) ([]domain.Player, error) {
	query := `
		SELECT id, name, avatar, username, first_seen, last_seen,
		       games_played, high_score, total_spent, stars_balance, vip, name_color
		FROM players
		ORDER BY last_seen DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		err := rows.Scan(
			&p.ID, &p.Name, &p.Avatar, &p.Username, &p.FirstSeen, &p.LastSeen,
			&p.GamesPlayed, &p.HighScore, &p.TotalSpent, &p.StarsBalance, &p.VIP, &p.NameColor,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, nil
}

// IncrementGames bumps a player's games-played counter.
func (r *Repository) IncrementGames(ctx context.Context, playerID string) error {
	query := `UPDATE players SET games_played = games_played + 1 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, playerID); err != nil {
		return fmt.Errorf("incrementing games: %w", err)
	}
	return nil
}

// RecordHighScore keeps the best score per player.
func (r *Repository) RecordHighScore(ctx context.Context, playerID string, score int64) error {
	query := `UPDATE players SET high_score = GREATEST(high_score, $2) WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, playerID, score); err != nil {
		return fmt.Errorf("recording high score: %w", err)
	}
	return nil
}

// CreditStars adds purchased stars and spend to a player.
func (r *Repository) CreditStars(ctx context.Context, playerID string, stars, spent int64) error {
	query := `
		UPDATE players
		SET stars_balance = stars_balance + $2, total_spent = total_spent + $3
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, playerID, stars, spent); err != nil {
		return fmt.Errorf("crediting stars: %w", err)
	}
	return nil
}

// SetCosmetics applies purchased display flags.
func (r *Repository) SetCosmetics(ctx context.Context, playerID string, cosmetics domain.Cosmetics, spent int64) error {
	query := `
		UPDATE players
		SET vip = (vip OR $2), name_color = CASE WHEN $3 <> '' THEN $3 ELSE name_color END,
		    total_spent = total_spent + $4
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, playerID, cosmetics.VIP, cosmetics.NameColor, spent); err != nil {
		return fmt.Errorf("setting cosmetics: %w", err)
	}
	return nil
}

// SetUsername stores the claimed name on the player row and the unique
// registry table inside one transaction.
func (r *Repository) SetUsername(ctx context.Context, playerID, normalized string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning username tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `DELETE FROM usernames WHERE player_id = $1 AND name <> $2`, playerID, normalized); err != nil {
		return fmt.Errorf("releasing previous username: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO usernames (name, player_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET player_id = $2, updated_at = $3
	`, normalized, playerID, now)
	if err != nil {
		return fmt.Errorf("claiming username: %w", err)
	}
	// The registered name becomes the display name.
	if _, err := tx.Exec(ctx, `UPDATE players SET username = $2, name = $2 WHERE id = $1`, playerID, normalized); err != nil {
		return fmt.Errorf("updating player username: %w", err)
	}
	return tx.Commit(ctx)
}

// InsertPayment appends a settled payment. A redelivered charge id
// surfaces as ErrDuplicateCharge.
func (r *Repository) InsertPayment(ctx context.Context, payment domain.PaymentRecord) error {
	query := `
		INSERT INTO payments (player_id, amount, currency, payload, charge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		payment.PlayerID, payment.Amount, payment.Currency,
		payment.Payload, payment.ChargeID, payment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateCharge
		}
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// RecentPayments returns the newest payments.
func (r *Repository) RecentPayments(ctx context.Context, limit int) ([]domain.PaymentRecord, error) {
	query := `
		SELECT player_id, amount, currency, payload, charge_id, created_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		var p domain.PaymentRecord
		if err := rows.Scan(&p.PlayerID, &p.Amount, &p.Currency, &p.Payload, &p.ChargeID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// TopSpenders returns players ordered by cumulative spend.
func (r *Repository) TopSpenders(ctx context.Context, limit int) ([]domain.Player, error) {
	query := `
		SELECT id, name, avatar, username, first_seen, last_seen,
		       games_played, high_score, total_spent, stars_balance, vip, name_color
		FROM players
		WHERE total_spent > 0
		ORDER BY total_spent DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top spenders: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		err := rows.Scan(
			&p.ID, &p.Name, &p.Avatar, &p.Username, &p.FirstSeen, &p.LastSeen,
			&p.GamesPlayed, &p.HighScore, &p.TotalSpent, &p.StarsBalance, &p.VIP, &p.NameColor,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, nil
}

// InsertFriends stores a symmetric link, ignoring duplicates.
func (r *Repository) InsertFriends(ctx context.Context, a, b string) error {
	query := `
		INSERT INTO friends (player_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (player_id, friend_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, a, b); err != nil {
		return fmt.Errorf("inserting friends: %w", err)
	}
	return nil
}

// AllFriendPairs returns every directed friend edge for recovery sync.
func (r *Repository) AllFriendPairs(ctx context.Context) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT player_id, friend_id FROM friends`)
	if err != nil {
		return nil, fmt.Errorf("listing friend pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string][]string)
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("scanning friend pair: %w", err)
		}
		pairs[a] = append(pairs[a], b)
	}
	return pairs, nil
}

// AllUsernames returns the registry table for recovery sync.
func (r *Repository) AllUsernames(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, player_id FROM usernames`)
	if err != nil {
		return nil, fmt.Errorf("listing usernames: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var name, playerID string
		if err := rows.Scan(&name, &playerID); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}
		names[name] = playerID
	}
	return names, nil
}

// BatchUpsertScores inserts or updates board rows efficiently.
func (r *Repository) BatchUpsertScores(ctx context.Context, board domain.Board, scores map[string]int64) error {
	if len(scores) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO board_scores (board, player_id, score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board, player_id)
		DO UPDATE SET score = GREATEST(board_scores.score, $3), updated_at = $4
	`
	now := time.Now().UTC()

	for playerID, score := range scores {
		batch.Queue(query, string(board), playerID, score, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range scores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upserting scores: %w", err)
		}
	}
	return nil
}

// GetAllScores retrieves all board rows (for recovery sync).
func (r *Repository) GetAllScores(ctx context.Context, board domain.Board) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT player_id, score FROM board_scores WHERE board = $1`, string(board))
	if err != nil {
		return nil, fmt.Errorf("getting all scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]int64)
	for rows.Next() {
		var playerID string
		var score int64
		if err := rows.Scan(&playerID, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[playerID] = score
	}
	return scores, nil
}

// KnownBoards lists every board that has persisted rows.
func (r *Repository) KnownBoards(ctx context.Context) ([]domain.Board, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT board FROM board_scores`)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		var board string
		if err := rows.Scan(&board); err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		boards = append(boards, domain.Board(board))
	}
	return boards, nil
}

// ResetBoard clears persisted rows for a board.
func (r *Repository) ResetBoard(ctx context.Context, board domain.Board) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM board_scores WHERE board = $1`, string(board)); err != nil {
		return fmt.Errorf("resetting board: %w", err)
	}
	return nil
}

// SaveCounters persists the aggregate stat counters.
func (r *Repository) SaveCounters(ctx context.Context, counters map[string]int64) error {
	if len(counters) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for key, value := range counters {
		batch.Queue(`
			INSERT INTO counters (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = $2
		`, key, value)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range counters {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("saving counters: %w", err)
		}
	}
	return nil
}

// LoadCounters reads persisted stat counters for recovery.
func (r *Repository) LoadCounters(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("loading counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]int64)
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning counter: %w", err)
		}
		counters[key] = value
	}
	return counters, nil
}

// WipeAll deletes every row from every table. Admin full reset only.
func (r *Repository) WipeAll(ctx context.Context) error {
	tables := []string{"board_scores", "payments", "friends", "usernames", "counters", "players"}
	for _, table := range tables {
		if _, err := r.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wiping %s: %w", table, err)
		}
	}
	return nil
}
