package game

import "context"

// Record is one row destined for the games table. GameDate is the league
// civil date in YYYY-MM-DD form and doubles as the partition key.
type Record struct {
	GameID     string
	GameUID    string
	GameDate   string
	Season     int
	StatusType string
	HomeID     int64
	HomeAbbr   string
	HomeScore  int
	AwayID     int64
	AwayAbbr   string
	AwayScore  int
	Duration   int
	Attendance int
	ArenaName  string
}

// Repository appends game rows and answers the pre-load existence check.
// There is no update path, loads are append-only.
type Repository interface {
	CountByDateRange(ctx context.Context, startDate, endDate string) (int, error)
	BulkInsert(ctx context.Context, records []Record) error
}
