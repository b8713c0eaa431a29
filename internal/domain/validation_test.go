package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{name: "simple handle", handle: "alice", wantErr: false},
		{name: "with separators", handle: "alice.b_c-d", wantErr: false},
		{name: "too short", handle: "a", wantErr: true},
		{name: "too long", handle: strings.Repeat("a", MaxHandleLength+1), wantErr: true},
		{name: "leading dot", handle: ".alice", wantErr: true},
		{name: "contains space", handle: "alice smith", wantErr: true},
		{name: "surrounding whitespace", handle: " alice ", wantErr: true},
		{name: "empty", handle: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandle(tt.handle)
			if tt.wantErr && !errors.Is(err, ErrInvalidHandle) {
				t.Errorf("expected ErrInvalidHandle, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	if got := NormalizeHandle("  alice\t"); got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}

	if got := NormalizeHandle("alice"); got != "alice" {
		t.Errorf("expected alice unchanged, got %q", got)
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(10)); err != nil {
		t.Errorf("unexpected error for valid amount: %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative, got %v", err)
	}

	huge, _ := decimal.NewFromString("1000000000001")
	if err := ValidateAmount(huge); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "rent"
	if got := TruncateDescription(short); got != short {
		t.Errorf("expected %q unchanged, got %q", short, got)
	}

	long := strings.Repeat("x", MaxDescriptionLength+10)
	if got := TruncateDescription(long); len(got) != MaxDescriptionLength {
		t.Errorf("expected truncation to %d, got %d", MaxDescriptionLength, len(got))
	}

	// A multibyte rune at the byte boundary must survive intact.
	boundary := strings.Repeat("x", MaxDescriptionLength-1) + "é"
	if got := TruncateDescription(boundary); got != boundary {
		t.Errorf("expected %d-rune description unchanged, got %q", MaxDescriptionLength, got)
	}

	multibyte := strings.Repeat("é", MaxDescriptionLength+10)
	got := TruncateDescription(multibyte)
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxDescriptionLength {
		t.Errorf("expected %d runes, got %d", MaxDescriptionLength, n)
	}
}
