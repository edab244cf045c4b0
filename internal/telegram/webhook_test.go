package telegram

import (
	"context"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

type fakeBackend struct {
	referrals    [][2]string
	payments     []domain.PaymentRecord
	statsCalls   int
	payloadError error
}

func (f *fakeBackend) Referral(_ context.Context, playerID, referrerID, _ string) error {
	f.referrals = append(f.referrals, [2]string{playerID, referrerID})
	return nil
}

func (f *fakeBackend) ValidatePreCheckout(payload string) error {
	if f.payloadError != nil {
		return f.payloadError
	}
	_, err := domain.ParseInvoicePayload(payload)
	return err
}

func (f *fakeBackend) ApplyPayment(_ context.Context, payment domain.PaymentRecord) error {
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakeBackend) Stats(context.Context) (domain.Stats, error) {
	f.statsCalls++
	return domain.Stats{TotalPlayers: 3, OnlineNow: 1}, nil
}

type fakeSender struct {
	messages       []string
	welcomes       []int64
	checkoutOKs    []bool
	checkoutErrors []string
}

func (f *fakeSender) SendMessage(_ context.Context, _ int64, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeSender) SendWelcome(_ context.Context, chatID int64, _ string) error {
	f.welcomes = append(f.welcomes, chatID)
	return nil
}

func (f *fakeSender) AnswerPreCheckout(_ context.Context, _ string, ok bool, errorMessage string) error {
	f.checkoutOKs = append(f.checkoutOKs, ok)
	f.checkoutErrors = append(f.checkoutErrors, errorMessage)
	return nil
}

func newTestDispatcher(backend *fakeBackend, sender *fakeSender, adminChatID int64) *Dispatcher {
	cfg := &config.TelegramConfig{AdminChatID: adminChatID}
	return NewDispatcher(backend, sender, cfg, slog.Default())
}

func commandMessage(userID, chatID int64, text string, commandLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Tester"},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: commandLen},
		},
	}
}

func TestHandleStartWithReferral(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 0)

	d.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(7, 7, "/start ref_42", 6),
	})

	if len(backend.referrals) != 1 {
		t.Fatalf("got %d referrals, want 1", len(backend.referrals))
	}
	if backend.referrals[0] != [2]string{"7", "42"} {
		t.Errorf("referral = %v, want [7 42]", backend.referrals[0])
	}
	if len(sender.welcomes) != 1 || sender.welcomes[0] != 7 {
		t.Errorf("welcomes = %v, want one to chat 7", sender.welcomes)
	}
}

func TestHandleStartWithoutReferral(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 0)

	d.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(7, 7, "/start", 6),
	})

	if len(backend.referrals) != 0 {
		t.Errorf("unexpected referrals: %v", backend.referrals)
	}
	if len(sender.welcomes) != 1 {
		t.Errorf("got %d welcomes, want 1", len(sender.welcomes))
	}
}

func TestHandleStatsAdminOnly(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 99)

	// Non-admin chat is silently ignored.
	d.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(7, 7, "/stats", 6),
	})
	if backend.statsCalls != 0 || len(sender.messages) != 0 {
		t.Fatal("non-admin chat should not receive stats")
	}

	// Admin chat gets a reply.
	d.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(99, 99, "/stats", 6),
	})
	if backend.statsCalls != 1 {
		t.Errorf("statsCalls = %d, want 1", backend.statsCalls)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(sender.messages))
	}
}

func TestHandlePreCheckoutApproves(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 0)

	d.HandleUpdate(context.Background(), tgbotapi.Update{
		PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{
			ID:             "q1",
			InvoicePayload: "stars:stars_100:7",
		},
	})

	if len(sender.checkoutOKs) != 1 || !sender.checkoutOKs[0] {
		t.Fatalf("checkoutOKs = %v, want one approval", sender.checkoutOKs)
	}
	if sender.checkoutErrors[0] != "" {
		t.Errorf("unexpected error message %q", sender.checkoutErrors[0])
	}
}

func TestHandlePreCheckoutDeclinesMalformedPayload(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 0)

	d.HandleUpdate(context.Background(), tgbotapi.Update{
		PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{
			ID:             "q2",
			InvoicePayload: "garbage",
		},
	})

	if len(sender.checkoutOKs) != 1 || sender.checkoutOKs[0] {
		t.Fatalf("checkoutOKs = %v, want one decline", sender.checkoutOKs)
	}
	if sender.checkoutErrors[0] == "" {
		t.Error("decline should carry an error message")
	}
}

func TestHandleSuccessfulPayment(t *testing.T) {
	backend := &fakeBackend{}
	sender := &fakeSender{}
	d := newTestDispatcher(backend, sender, 0)

	d.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 7},
			Chat: &tgbotapi.Chat{ID: 7},
			SuccessfulPayment: &tgbotapi.SuccessfulPayment{
				Currency:                "XTR",
				TotalAmount:             100,
				InvoicePayload:          "stars:stars_100:7",
				TelegramPaymentChargeID: "charge-abc",
			},
		},
	})

	if len(backend.payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(backend.payments))
	}
	p := backend.payments[0]
	if p.PlayerID != "7" {
		t.Errorf("PlayerID = %q, want 7", p.PlayerID)
	}
	if p.Amount != 100 || p.Currency != "XTR" {
		t.Errorf("amount/currency = %d %q, want 100 XTR", p.Amount, p.Currency)
	}
	if p.ChargeID != "charge-abc" {
		t.Errorf("ChargeID = %q, want charge-abc", p.ChargeID)
	}
	if p.Payload != "stars:stars_100:7" {
		t.Errorf("Payload = %q", p.Payload)
	}
}
