package domain

import (
	"errors"
	"testing"
)

func TestParseInvoicePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    InvoicePayload
		wantErr bool
	}{
		{
			name: "stars payload",
			raw:  "stars:stars_100:7",
			want: InvoicePayload{Kind: "stars", RefID: "stars_100", PlayerID: "7"},
		},
		{
			name: "item payload",
			raw:  "item:vip_badge:424242",
			want: InvoicePayload{Kind: "item", RefID: "vip_badge", PlayerID: "424242"},
		},
		{name: "unknown kind", raw: "gift:stars_100:7", wantErr: true},
		{name: "missing player", raw: "stars:stars_100:", wantErr: true},
		{name: "missing ref", raw: "stars::7", wantErr: true},
		{name: "too few parts", raw: "stars:stars_100", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInvoicePayload(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("ParseInvoicePayload(%q) error = %v, want ErrInvalidPayload", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInvoicePayload(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseInvoicePayload(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEncodeInvoicePayloadRoundTrip(t *testing.T) {
	raw := EncodeInvoicePayload(PayloadKindStars, "stars_500", "99")
	decoded, err := ParseInvoicePayload(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.RefID != "stars_500" || decoded.PlayerID != "99" {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}

func TestStarPackageTotal(t *testing.T) {
	pkg := StarPackage{Stars: 500, Bonus: 50}
	if got := pkg.Total(); got != 550 {
		t.Errorf("Total() = %d, want 550", got)
	}
}
