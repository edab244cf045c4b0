package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
)

// CosmeticItem is a purchasable display upgrade.
type CosmeticItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"` // Telegram Stars (XTR)
	VIP       bool   `json:"vip,omitempty"`
	NameColor string `json:"name_color,omitempty"`
}

var cosmeticItems = []CosmeticItem{
	{ID: "vip_badge", Title: "VIP Badge", Price: 500, VIP: true},
	{ID: "color_gold", Title: "Gold Name", Price: 250, NameColor: "#ffd700"},
	{ID: "color_crimson", Title: "Crimson Name", Price: 250, NameColor: "#dc143c"},
	{ID: "color_azure", Title: "Azure Name", Price: 250, NameColor: "#007fff"},
}

// StarPackages returns the purchasable star bundles.
func (s *GameService) StarPackages() []domain.StarPackage {
	return s.config.Packages
}

// CosmeticItems returns the purchasable display upgrades.
func (s *GameService) CosmeticItems() []CosmeticItem {
	return cosmeticItems
}

func findItem(id string) (CosmeticItem, bool) {
	for _, item := range cosmeticItems {
		if item.ID == id {
			return item, true
		}
	}
	return CosmeticItem{}, false
}

// CreateInvoice sends a Telegram Stars invoice for a star package or a
// cosmetic item to the player's chat.
func (s *GameService) CreateInvoice(ctx context.Context, playerID, kind, refID string) error {
	if playerID == "" {
		return domain.ErrMissingPlayerID
	}
	if s.notifier == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	chatID, err := strconv.ParseInt(playerID, 10, 64)
	if err != nil {
		return domain.ErrInvalidRequest
	}

	var title, description string
	var price int64
	switch kind {
	case domain.PayloadKindStars:
		pkg, ok := s.config.FindPackage(refID)
		if !ok {
			return domain.ErrUnknownPackage
		}
		title = pkg.Title
		description = fmt.Sprintf("%d stars", pkg.Total())
		price = pkg.Price
	case domain.PayloadKindItem:
		item, ok := findItem(refID)
		if !ok {
			return domain.ErrUnknownPackage
		}
		title = item.Title
		description = item.Title
		price = item.Price
	default:
		return domain.ErrInvalidPayload
	}

	payload := domain.EncodeInvoicePayload(kind, refID, playerID)
	if err := s.notifier.SendInvoice(ctx, chatID, title, description, payload, price); err != nil {
		return fmt.Errorf("sending invoice: %w", err)
	}
	return nil
}

// ValidatePreCheckout decides whether a pre-checkout query may proceed.
// Only a payload that fails to decode is declined; an unknown package
// is approved with a warning since the catalog may have rotated between
// invoice and checkout.
func (s *GameService) ValidatePreCheckout(payload string) error {
	decoded, err := domain.ParseInvoicePayload(payload)
	if err != nil {
		return err
	}
	switch decoded.Kind {
	case domain.PayloadKindStars:
		if _, ok := s.config.FindPackage(decoded.RefID); !ok {
			s.logger.Warn("pre-checkout for unknown package", "package", decoded.RefID)
		}
	case domain.PayloadKindItem:
		if _, ok := findItem(decoded.RefID); !ok {
			s.logger.Warn("pre-checkout for unknown item", "item", decoded.RefID)
		}
	}
	return nil
}

// ApplyPayment settles a successful Telegram Stars payment: it records
// the charge, credits the purchase, and forces a durable flush. A charge
// id seen before is ignored so webhook redeliveries cannot double-credit.
func (s *GameService) ApplyPayment(ctx context.Context, payment domain.PaymentRecord) error {
	decoded, err := domain.ParseInvoicePayload(payment.Payload)
	if err != nil {
		return err
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.PlayerID == "" {
		payment.PlayerID = decoded.PlayerID
	}

	if err := s.postgres.InsertPayment(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrDuplicateCharge) {
			s.logger.Warn("ignoring redelivered payment", "charge_id", payment.ChargeID)
			return nil
		}
		return fmt.Errorf("recording payment: %w", err)
	}

	var confirmation string
	switch decoded.Kind {
	case domain.PayloadKindStars:
		pkg, ok := s.config.FindPackage(decoded.RefID)
		if !ok {
			return domain.ErrUnknownPackage
		}
		if err := s.postgres.CreditStars(ctx, payment.PlayerID, pkg.Total(), payment.Amount); err != nil {
			return fmt.Errorf("crediting stars: %w", err)
		}
		confirmation = fmt.Sprintf("Payment received! %d stars added to your balance.", pkg.Total())
	case domain.PayloadKindItem:
		item, ok := findItem(decoded.RefID)
		if !ok {
			return domain.ErrUnknownPackage
		}
		cosmetics := domain.Cosmetics{VIP: item.VIP, NameColor: item.NameColor}
		if err := s.postgres.SetCosmetics(ctx, payment.PlayerID, cosmetics, payment.Amount); err != nil {
			return fmt.Errorf("applying item: %w", err)
		}
		s.refreshCard(ctx, payment.PlayerID)
		confirmation = fmt.Sprintf("Payment received! %s unlocked.", item.Title)
	}

	if err := s.redis.IncrStat(ctx, redis.StatPaymentCount, 1); err != nil {
		s.logger.Warn("failed to bump payment counter", "error", err)
	}
	if err := s.redis.IncrStat(ctx, redis.StatTotalRevenue, payment.Amount); err != nil {
		s.logger.Warn("failed to bump revenue counter", "error", err)
	}
	s.recordActivity(ctx, domain.ActivityEvent{
		Type:     domain.ActivityPayment,
		PlayerID: payment.PlayerID,
		Detail:   payment.Payload,
		Amount:   payment.Amount,
	})

	s.confirmPayment(ctx, payment, confirmation)

	// Money must not sit in the write-behind window.
	if s.flusher != nil {
		if err := s.flusher.FlushNow(ctx); err != nil {
			s.logger.Error("post-payment flush failed", "error", err)
		}
	}
	return nil
}

func (s *GameService) confirmPayment(ctx context.Context, payment domain.PaymentRecord, confirmation string) {
	if s.notifier == nil {
		return
	}

	if chatID, err := strconv.ParseInt(payment.PlayerID, 10, 64); err == nil {
		if err := s.notifier.SendMessage(ctx, chatID, confirmation); err != nil {
			s.logger.Warn("failed to send payment confirmation", "error", err)
		}
	}

	if adminChat := s.config.Telegram.AdminChatID; adminChat != 0 {
		text := fmt.Sprintf("Payment: %d %s from player %s (%s)",
			payment.Amount, payment.Currency, payment.PlayerID, payment.Payload)
		if err := s.notifier.SendMessage(ctx, adminChat, text); err != nil {
			s.logger.Warn("failed to notify admin chat", "error", err)
		}
	}
}

func (s *GameService) refreshCard(ctx context.Context, playerID string) {
	player, err := s.postgres.GetPlayer(ctx, playerID)
	if err != nil {
		s.logger.Warn("failed to load player for card refresh", "player_id", playerID, "error", err)
		return
	}
	err = s.redis.SetPlayerCard(ctx, playerID,
		domain.Profile{Name: player.Name, Avatar: player.Avatar},
		domain.Cosmetics{VIP: player.VIP, NameColor: player.NameColor},
	)
	if err != nil {
		s.logger.Warn("failed to refresh player card", "player_id", playerID, "error", err)
	}
}
