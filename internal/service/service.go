package service

import (
	"context"
	"log/slog"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/postgres"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

// Broadcaster pushes live updates to connected dashboard clients.
type Broadcaster interface {
	Broadcast(channel string, payload interface{})
}

// Flusher forces an immediate Redis-to-Postgres writeback.
type Flusher interface {
	FlushNow(ctx context.Context) error
}

// Notifier delivers outbound Telegram messages. Nil when the bot is
// disabled.
type Notifier interface {
	SendInvoice(ctx context.Context, chatID int64, title, description, payload string, amount int64) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// GameService provides the business logic for the game backend: presence,
// leaderboards, social graph, payments and the admin surface.
type GameService struct {
	redis    *redis.Store
	postgres *postgres.Repository
	config   *config.Config
	logger   *slog.Logger

	broadcaster Broadcaster
	flusher     Flusher
	notifier    Notifier
}

// NewGameService creates a new game service
func NewGameService(
	store *redis.Store,
	repo *postgres.Repository,
	cfg *config.Config,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		redis:    store,
		postgres: repo,
		config:   cfg,
		logger:   logger,
	}
}

// SetBroadcaster attaches the websocket hub after construction.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetFlusher attaches the flush worker after construction.
func (s *GameService) SetFlusher(f Flusher) {
	s.flusher = f
}

// SetNotifier attaches the Telegram bot after construction.
func (s *GameService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *GameService) broadcast(channel string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(channel, payload)
	}
}
