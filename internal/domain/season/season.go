package season

import (
	"fmt"
	"sort"
	"time"
)

// Epoch anchors one season's identifier space. Prefix is the fixed leading
// part of every game identifier issued that season, Anchor is the league
// civil date of the first scheduled game, and StartSeq is the first sequence
// number worth probing.
type Epoch struct {
	Prefix   string
	Anchor   time.Time
	StartSeq int
}

// DateRange is an inclusive window of league civil dates mapped to a single
// epoch.
type DateRange struct {
	Start time.Time
	End   time.Time
	Epoch Epoch
}

// SeqRange is an inclusive candidate sequence window within one epoch.
type SeqRange struct {
	Start int
	End   int
}

// DefaultEpochs covers the supported seasons. Override through SEASON_EPOCHS
// when the league publishes the next season's prefix.
func DefaultEpochs() []Epoch {
	return []Epoch{
		{Prefix: "002240", Anchor: Date(2024, time.October, 22)},
		{Prefix: "002250", Anchor: Date(2025, time.October, 21)},
	}
}

// Date builds a timezone-free civil date. All season math runs on these.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EpochsFromConfig converts the parsed SEASON_EPOCHS map into a sorted epoch
// table. An empty map yields the built-in defaults.
func EpochsFromConfig(raw map[string]string) ([]Epoch, error) {
	if len(raw) == 0 {
		return DefaultEpochs(), nil
	}

	epochs := make([]Epoch, 0, len(raw))
	for prefix, anchor := range raw {
		parsed, err := time.Parse("2006-01-02", anchor)
		if err != nil {
			return nil, fmt.Errorf("epoch %s has invalid anchor %q: %w", prefix, anchor, err)
		}
		epochs = append(epochs, Epoch{Prefix: prefix, Anchor: Date(parsed.Year(), parsed.Month(), parsed.Day())})
	}
	sortEpochs(epochs)
	return epochs, nil
}

func sortEpochs(epochs []Epoch) {
	sort.Slice(epochs, func(i, j int) bool {
		return epochs[i].Anchor.Before(epochs[j].Anchor)
	})
}

// boundary is the civil date on which an epoch's season begins owning dates.
// The league flips identifier prefixes with the new schedule year, before
// opening night, so October 1 of the anchor year is the cutover.
func (e Epoch) boundary() time.Time {
	return Date(e.Anchor.Year(), time.October, 1)
}

// FormatGameID renders one candidate identifier: the epoch prefix followed by
// the zero-padded 4-digit sequence number.
func (e Epoch) FormatGameID(seq int) string {
	return fmt.Sprintf("%s%04d", e.Prefix, seq)
}

// EpochForDate picks the epoch owning the given civil date: the latest epoch
// whose boundary is on or before the date. Dates before every boundary fall
// to the earliest known epoch.
func EpochForDate(epochs []Epoch, date time.Time) (Epoch, error) {
	if len(epochs) == 0 {
		return Epoch{}, fmt.Errorf("epoch table is empty")
	}

	sorted := append([]Epoch(nil), epochs...)
	sortEpochs(sorted)

	chosen := sorted[0]
	for _, e := range sorted {
		if !e.boundary().After(date) {
			chosen = e
		}
	}
	return chosen, nil
}

// PartitionRange splits [start, end] at epoch boundaries so every returned
// range maps to exactly one epoch. Ranges are contiguous, in order, and
// cover the input without gaps or overlaps. A single-epoch input comes back
// as one range.
func PartitionRange(epochs []Epoch, start, end time.Time) ([]DateRange, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s precedes start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if len(epochs) == 0 {
		return nil, fmt.Errorf("epoch table is empty")
	}

	sorted := append([]Epoch(nil), epochs...)
	sortEpochs(sorted)

	var out []DateRange
	cursor := start
	for _, e := range sorted {
		b := e.boundary()
		if !b.After(cursor) || b.After(end) {
			continue
		}
		epoch, err := EpochForDate(sorted, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, DateRange{Start: cursor, End: b.AddDate(0, 0, -1), Epoch: epoch})
		cursor = b
	}

	epoch, err := EpochForDate(sorted, cursor)
	if err != nil {
		return nil, err
	}
	out = append(out, DateRange{Start: cursor, End: end, Epoch: epoch})
	return out, nil
}

// EstimateRange bounds the candidate sequence space to probe for games on or
// before end within the epoch. The upper bound grows linearly with the days
// elapsed since the anchor plus a fixed safety buffer; an end date before
// the anchor yields an empty range.
func EstimateRange(e Epoch, end time.Time, gamesPerDay, safetyBuffer int) (SeqRange, bool) {
	if end.Before(e.Anchor) {
		return SeqRange{}, false
	}

	days := int(end.Sub(e.Anchor).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return SeqRange{
		Start: e.StartSeq,
		End:   e.StartSeq + days*gamesPerDay + safetyBuffer,
	}, true
}

// SeasonForDate derives the season label from a civil date. Seasons span the
// new year, so October through December belong to the starting year.
func SeasonForDate(date time.Time) int {
	if date.Month() >= time.October {
		return date.Year()
	}
	return date.Year() - 1
}
