package game

import (
	"testing"
	"time"
)

func leagueTZ(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestNormalizeDate(t *testing.T) {
	loc := leagueTZ(t)

	tests := []struct {
		name     string
		raw      string
		fallback string
		want     string
	}{
		{
			// 23:30 UTC is 19:30 Eastern, same civil date.
			name: "evening utc stays same day",
			raw:  "2024-10-28T23:30:00Z",
			want: "2024-10-28",
		},
		{
			// 02:00 UTC is 22:00 Eastern the previous day.
			name: "early utc rolls back a day",
			raw:  "2024-10-29T02:00:00Z",
			want: "2024-10-28",
		},
		{
			name: "explicit offset",
			raw:  "2024-10-28T19:30:00-04:00",
			want: "2024-10-28",
		},
		{
			name: "no zone assumed utc",
			raw:  "2024-10-29T02:00:00",
			want: "2024-10-28",
		},
		{
			// time.Parse accepts a fractional second even when the layout
			// omits it, so this still converts instead of degrading to the
			// raw prefix.
			name: "no zone with fractional seconds",
			raw:  "2024-10-29T02:00:00.123",
			want: "2024-10-28",
		},
		{
			name: "bare date passes through",
			raw:  "2024-10-28",
			want: "2024-10-28",
		},
		{
			name: "date with trailing junk",
			raw:  "2024-10-28 7:30 pm ET",
			want: "2024-10-28",
		},
		{
			name:     "empty uses fallback",
			raw:      "",
			fallback: "2024-11-01",
			want:     "2024-11-01",
		},
		{
			name:     "garbage uses fallback",
			raw:      "tonight",
			fallback: "2024-11-01",
			want:     "2024-11-01",
		},
		{
			name: "malformed timestamp with date prefix",
			raw:  "2024-10-28Tbogus",
			want: "2024-10-28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(loc, tt.raw, tt.fallback); got != tt.want {
				t.Fatalf("NormalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"PT32M33.00S", "32:33"},
		{"PT07M09.00S", "7:09"},
		{"PT00M00.00S", "0:00"},
		{"PT41M58.50S", "41:58"},
		{"", "0:00"},
		{"DNP", "0:00"},
		{"PT32M", "32:00"},
	}

	for _, tt := range tests {
		if got := ParseMinutes(tt.raw); got != tt.want {
			t.Fatalf("ParseMinutes(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPlayable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Final", true},
		{"Halftime", true},
		{"3rd Qtr", true},
		{"In Progress", true},
		{"Scheduled", false},
		{"Sched 7:30 ET", false},
		{"Pregame", false},
		{"pre-game", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := Playable(tt.status); got != tt.want {
			t.Fatalf("Playable(%q) = %t, want %t", tt.status, got, tt.want)
		}
	}
}
