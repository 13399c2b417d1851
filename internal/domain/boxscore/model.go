package boxscore

import "context"

// PlayerLine is one player's stat line for one game. Only players the
// provider marks ACTIVE produce lines; GameDate mirrors the parent game's
// league civil date so both tables partition the same way.
type PlayerLine struct {
	GameID     string
	GameDate   string
	Season     int
	TeamID     int64
	TeamAbbr   string
	PlayerID   int64
	PlayerName string
	Starter    bool
	Minutes    string
	Points     int
	Rebounds   int
	Assists    int
	Steals     int
	Blocks     int
	Turnovers  int
	FGM        int
	FGA        int
	FGPct      float64
	FG3M       int
	FG3A       int
	FG3Pct     float64
	FTM        int
	FTA        int
	FTPct      float64
	OffReb     int
	DefReb     int
	Fouls      int
	PlusMinus  float64
	Position   string
	JerseyNum  string
}

type Repository interface {
	CountByDateRange(ctx context.Context, startDate, endDate string) (int, error)
	BulkInsert(ctx context.Context, lines []PlayerLine) error
}
