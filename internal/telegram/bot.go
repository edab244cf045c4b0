package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
)

// Bot wraps the Telegram Bot API client. It sends invoices, chat
// messages and pre-checkout answers; inbound updates arrive over the
// webhook and are routed by the Dispatcher.
type Bot struct {
	api    *tgbotapi.BotAPI
	config *config.TelegramConfig
	logger *slog.Logger
}

// NewBot creates a new bot client and verifies the token.
func NewBot(cfg *config.TelegramConfig, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot client: %w", err)
	}

	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return &Bot{
		api:    api,
		config: cfg,
		logger: logger,
	}, nil
}

// SendMessage delivers a plain text message to a chat.
func (b *Bot) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendInvoice sends a Telegram Stars invoice to a chat. Stars invoices
// use the XTR currency with an empty provider token.
func (b *Bot) SendInvoice(_ context.Context, chatID int64, title, description, payload string, amount int64) error {
	invoice := tgbotapi.NewInvoice(
		chatID,
		title,
		description,
		payload,
		"", // provider token is empty for Stars
		"", // start parameter
		"XTR",
		[]tgbotapi.LabeledPrice{{Label: title, Amount: int(amount)}},
	)
	invoice.SuggestedTipAmounts = []int{}
	if _, err := b.api.Send(invoice); err != nil {
		return fmt.Errorf("sending invoice: %w", err)
	}
	return nil
}

// AnswerPreCheckout approves or declines a pre-checkout query. Telegram
// requires an answer within 10 seconds.
func (b *Bot) AnswerPreCheckout(_ context.Context, queryID string, ok bool, errorMessage string) error {
	answer := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}
	if _, err := b.api.Request(answer); err != nil {
		return fmt.Errorf("answering pre-checkout: %w", err)
	}
	return nil
}

// SendWelcome greets a player on /start with a button that opens the
// game as a Telegram web app.
func (b *Bot) SendWelcome(_ context.Context, chatID int64, name string) error {
	text := fmt.Sprintf("Welcome, %s! Tap the button below to play.", name)
	if name == "" {
		text = "Welcome! Tap the button below to play."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if b.config.WebAppURL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Play", b.config.WebAppURL),
			),
		)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}
	return nil
}
