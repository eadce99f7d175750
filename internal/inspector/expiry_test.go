package inspector

import (
	"errors"
	"testing"
	"time"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"30 days and 1 hour", 30*24*time.Hour + time.Hour, 30},
		{"30 days minus 1 hour", 30*24*time.Hour - time.Hour, 29},
		{"12 hours ahead", 12 * time.Hour, 0},
		{"12 hours behind", -12 * time.Hour, -1},
		{"exactly now", 0, 0},
		{"one year", 365 * 24 * time.Hour, 365},
		{"ten days behind", -10 * 24 * time.Hour, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validTo := FormatCertTime(now.Add(tt.offset))
			got, err := DaysRemaining(validTo, now)
			if err != nil {
				t.Fatalf("DaysRemaining(%q) error = %v", validTo, err)
			}
			if got != tt.want {
				t.Errorf("DaysRemaining(%q) = %v, want %v", validTo, got, tt.want)
			}
		})
	}
}

func TestDaysRemaining_Deterministic(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	first, err := DaysRemaining("Jun  1 12:00:00 2026 GMT", now)
	if err != nil {
		t.Fatalf("DaysRemaining() error = %v", err)
	}
	second, _ := DaysRemaining("Jun  1 12:00:00 2026 GMT", now)
	if first != second {
		t.Errorf("DaysRemaining() not deterministic: %v vs %v", first, second)
	}
	if first != 151 {
		t.Errorf("DaysRemaining() = %v, want 151", first)
	}
}

func TestDaysRemaining_ParseError(t *testing.T) {
	inputs := []string{"", "2026-06-01T12:00:00Z", "Foo 99 12:00:00 2026 GMT", "Jun  1 2026"}

	for _, in := range inputs {
		_, err := DaysRemaining(in, time.Now())
		if err == nil {
			t.Errorf("DaysRemaining(%q) error = nil, want DateParseError", in)
			continue
		}
		if !errors.Is(err, ErrDateParse) {
			t.Errorf("DaysRemaining(%q) error = %v, want ErrDateParse", in, err)
		}
	}
}

func TestFormatCertTime(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC), "Jun  1 12:00:00 2026 GMT"},
		{time.Date(2025, time.December, 15, 8, 30, 5, 0, time.UTC), "Dec 15 08:30:05 2025 GMT"},
		{time.Date(2026, time.June, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600)), "Jun  1 12:00:00 2026 GMT"},
	}

	for _, tt := range tests {
		if got := FormatCertTime(tt.in); got != tt.want {
			t.Errorf("FormatCertTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyExpiry(t *testing.T) {
	tests := []struct {
		days int
		want ExpiryStatus
	}{
		{365, ExpiryHealthy},
		{31, ExpiryHealthy},
		{30, ExpiryWarning},
		{1, ExpiryWarning},
		{0, ExpiryExpired},
		{-1, ExpiryExpired},
		{-400, ExpiryExpired},
	}

	for _, tt := range tests {
		if got := ClassifyExpiry(tt.days); got != tt.want {
			t.Errorf("ClassifyExpiry(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}
