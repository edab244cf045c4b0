package service

import (
	"errors"
	"testing"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercases", input: "FruitKing", want: "fruitking"},
		{name: "trims whitespace", input: "  melon_99  ", want: "melon_99"},
		{name: "digits and underscore", input: "a_1", want: "a_1"},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: "abcdefghijklmnopqrstu", wantErr: true},
		{name: "spaces inside", input: "fruit king", wantErr: true},
		{name: "unicode rejected", input: "frücht", wantErr: true},
		{name: "punctuation rejected", input: "fruit-king", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUsername(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidUsername) {
					t.Fatalf("NormalizeUsername(%q) error = %v, want ErrInvalidUsername", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeUsername(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
