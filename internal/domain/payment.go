package domain

import (
	"fmt"
	"strings"
	"time"
)

// StarPackage is a purchasable bundle of in-game stars.
type StarPackage struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Stars int64  `json:"stars" yaml:"stars"`
	Bonus int64  `json:"bonus" yaml:"bonus"`
	Price int64  `json:"price" yaml:"price"` // Telegram Stars (XTR)
}

// Total returns the credited amount for the package.
func (p StarPackage) Total() int64 {
	return p.Stars + p.Bonus
}

// PaymentRecord is one settled Telegram Stars payment.
type PaymentRecord struct {
	PlayerID  string    `json:"player_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Payload   string    `json:"payload"`
	ChargeID  string    `json:"charge_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice payload kinds.
const (
	PayloadKindStars = "stars"
	PayloadKindItem  = "item"
)

// InvoicePayload is the decoded form of the opaque colon-delimited
// payload attached to every invoice: "stars:<packageID>:<userID>" or
// "item:<itemID>:<userID>".
type InvoicePayload struct {
	Kind     string
	RefID    string
	PlayerID string
}

// EncodeInvoicePayload builds the wire form of a payload.
func EncodeInvoicePayload(kind, refID, playerID string) string {
	return fmt.Sprintf("%s:%s:%s", kind, refID, playerID)
}

// ParseInvoicePayload decodes a payload string.
func ParseInvoicePayload(raw string) (InvoicePayload, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return InvoicePayload{}, ErrInvalidPayload
	}
	switch parts[0] {
	case PayloadKindStars, PayloadKindItem:
	default:
		return InvoicePayload{}, ErrInvalidPayload
	}
	return InvoicePayload{Kind: parts[0], RefID: parts[1], PlayerID: parts[2]}, nil
}
