package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const civilDateLayout = "2006-01-02"

// NormalizeDate converts a provider timestamp to the league civil date in
// YYYY-MM-DD form. Timestamps without zone information are treated as UTC
// before conversion. The function never fails: unparseable input degrades to
// the first ten characters when they look like a date, then to fallback.
func NormalizeDate(loc *time.Location, raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if !strings.Contains(raw, "T") {
		if looksLikeDate(raw) {
			return raw[:10]
		}
		return fallback
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if layout == "2006-01-02T15:04:05" {
			// Zone-free timestamp, pin to UTC before converting.
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
		}
		return parsed.In(loc).Format(civilDateLayout)
	}

	if looksLikeDate(raw) {
		return raw[:10]
	}
	return fallback
}

func looksLikeDate(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i, r := range s[:10] {
		if i == 4 || i == 7 {
			if r != '-' {
				return false
			}
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseMinutes converts the provider clock form "PT32M33.00S" to "32:33".
// Anything unparseable reads as no playing time.
func ParseMinutes(raw string) string {
	if raw == "" || raw == "PT00M00.00S" {
		return "0:00"
	}

	clean := strings.TrimSuffix(strings.TrimPrefix(raw, "PT"), "S")
	minutesPart, secondsPart, found := strings.Cut(clean, "M")
	if !found {
		return "0:00"
	}

	minutes, err := strconv.Atoi(minutesPart)
	if err != nil || minutes < 0 {
		return "0:00"
	}

	seconds := 0
	if secondsPart != "" {
		secondsFloat, err := strconv.ParseFloat(secondsPart, 64)
		if err != nil || secondsFloat < 0 {
			return "0:00"
		}
		seconds = int(secondsFloat)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// Playable reports whether a game status indicates play has begun, meaning
// player boxscores are worth fetching. Scheduled and pregame statuses are
// not playable.
func Playable(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return false
	}
	lower := strings.ToLower(status)
	return !strings.HasPrefix(lower, "sched") && !strings.HasPrefix(lower, "pre")
}
