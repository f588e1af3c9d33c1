package duration

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   time.Duration
		wantOK bool
	}{
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"days and hours", "1d 2h", 26 * time.Hour, true},
		{"all segments", "1d 2h 3m 4s", 26*time.Hour + 3*time.Minute + 4*time.Second, true},
		{"upper case units", "2H 30M", 2*time.Hour + 30*time.Minute, true},
		{"any order", "10s 1m", time.Minute + 10*time.Second, true},
		{"unknown tokens ignored", "for 15m please", 15 * time.Minute, true},
		{"nothing recognized", "soon", Fallback, true},
		{"zero total", "0m", Fallback, true},
		{"glued segments are not recognized", "1d2h", Fallback, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.raw, err)
			}
			if ok != tt.wantOK {
				t.Errorf("Parse(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseOverflow(t *testing.T) {
	for _, raw := range []string{"99999999999999999999d", "200000d", "106751d 106751d"} {
		t.Run(raw, func(t *testing.T) {
			_, _, err := Parse(raw)
			if !errors.Is(err, ErrOverflow) {
				t.Errorf("Parse(%q) error = %v, want ErrOverflow", raw, err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{26 * time.Hour, "1d 2h"},
		{5 * time.Minute, "5m"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
