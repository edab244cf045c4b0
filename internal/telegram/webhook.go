package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Backend is the slice of the game service the dispatcher needs.
type Backend interface {
	Referral(ctx context.Context, playerID, referrerID, playerName string) error
	ValidatePreCheckout(payload string) error
	ApplyPayment(ctx context.Context, payment domain.PaymentRecord) error
	Stats(ctx context.Context) (domain.Stats, error)
}

// Sender is the outbound side of the bot. Bot implements it; tests
// substitute a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendWelcome(ctx context.Context, chatID int64, name string) error
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage string) error
}

// Dispatcher routes inbound webhook updates to the game service.
type Dispatcher struct {
	backend Backend
	sender  Sender
	config  *config.TelegramConfig
	logger  *slog.Logger
}

// NewDispatcher creates a new update dispatcher.
func NewDispatcher(backend Backend, sender Sender, cfg *config.TelegramConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		sender:  sender,
		config:  cfg,
		logger:  logger,
	}
}

// HandleUpdate processes one webhook update. Errors are logged, never
// returned: the webhook endpoint acknowledges every update so Telegram
// does not retry storms against a struggling backend.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		d.handlePreCheckout(ctx, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		d.handleSuccessfulPayment(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		d.handleCommand(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		d.handleStart(ctx, msg)
	case "stats":
		d.handleStats(ctx, msg)
	}
}

// handleStart greets the player and wires referral links of the form
// "/start ref_<referrerID>".
func (d *Dispatcher) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	playerID := strconv.FormatInt(msg.From.ID, 10)
	name := msg.From.FirstName

	if arg := msg.CommandArguments(); strings.HasPrefix(arg, "ref_") {
		referrerID := strings.TrimPrefix(arg, "ref_")
		if err := d.backend.Referral(ctx, playerID, referrerID, name); err != nil {
			d.logger.Warn("failed to record referral",
				"player_id", playerID, "referrer_id", referrerID, "error", err)
		}
	}

	if err := d.sender.SendWelcome(ctx, msg.Chat.ID, name); err != nil {
		d.logger.Warn("failed to send welcome", "chat_id", msg.Chat.ID, "error", err)
	}
}

// handleStats answers the aggregate counters, admin chat only.
func (d *Dispatcher) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if d.config.AdminChatID == 0 || msg.Chat.ID != d.config.AdminChatID {
		return
	}

	stats, err := d.backend.Stats(ctx)
	if err != nil {
		d.logger.Error("failed to read stats", "error", err)
		return
	}

	text := fmt.Sprintf(
		"Players: %d\nOnline: %d\nGames: %d started / %d finished\nPayments: %d (%d XTR)",
		stats.TotalPlayers, stats.OnlineNow,
		stats.GamesStarted, stats.GamesFinished,
		stats.PaymentCount, stats.TotalRevenue,
	)
	if err := d.sender.SendMessage(ctx, msg.Chat.ID, text); err != nil {
		d.logger.Warn("failed to send stats", "error", err)
	}
}

// handlePreCheckout answers the pre-checkout query. Telegram gives 10
// seconds; an unknown payload is declined, everything else approved.
func (d *Dispatcher) handlePreCheckout(ctx context.Context, query *tgbotapi.PreCheckoutQuery) {
	err := d.backend.ValidatePreCheckout(query.InvoicePayload)
	ok := err == nil
	errorMessage := ""
	if !ok {
		errorMessage = "This purchase is no longer available."
		d.logger.Warn("declining pre-checkout",
			"query_id", query.ID, "payload", query.InvoicePayload, "error", err)
	}

	if err := d.sender.AnswerPreCheckout(ctx, query.ID, ok, errorMessage); err != nil {
		d.logger.Error("failed to answer pre-checkout", "query_id", query.ID, "error", err)
	}
}

func (d *Dispatcher) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	payment := msg.SuccessfulPayment

	var playerID string
	if msg.From != nil {
		playerID = strconv.FormatInt(msg.From.ID, 10)
	}

	record := domain.PaymentRecord{
		PlayerID:  playerID,
		Amount:    int64(payment.TotalAmount),
		Currency:  payment.Currency,
		Payload:   payment.InvoicePayload,
		ChargeID:  payment.TelegramPaymentChargeID,
		CreatedAt: time.Now().UTC(),
	}

	if err := d.backend.ApplyPayment(ctx, record); err != nil {
		// The update is still acknowledged. The charge id is stored with
		// the failure logged so an operator can reconcile manually.
		d.logger.Error("failed to apply payment",
			"charge_id", record.ChargeID, "payload", record.Payload, "error", err)
	}
}
