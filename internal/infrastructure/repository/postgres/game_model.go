package postgres

import "github.com/courtwire/nba-ingest/internal/domain/game"

type gameInsertModel struct {
	GameID     string  `db:"game_id"`
	GameUID    *string `db:"game_uid"`
	GameDate   string  `db:"game_date"`
	Season     int     `db:"season"`
	StatusType *string `db:"status_type"`
	HomeID     *int64  `db:"home_id"`
	HomeAbbr   *string `db:"home_abbr"`
	HomeScore  int     `db:"home_score"`
	AwayID     *int64  `db:"away_id"`
	AwayAbbr   *string `db:"away_abbr"`
	AwayScore  int     `db:"away_score"`
	Duration   *int64  `db:"game_duration"`
	Attendance *int64  `db:"attendance"`
	ArenaName  *string `db:"arena_name"`
}

func newGameInsertModel(rec game.Record) gameInsertModel {
	return gameInsertModel{
		GameID:     rec.GameID,
		GameUID:    nullableString(rec.GameUID),
		GameDate:   rec.GameDate,
		Season:     rec.Season,
		StatusType: nullableString(rec.StatusType),
		HomeID:     nullableInt64(rec.HomeID),
		HomeAbbr:   nullableString(rec.HomeAbbr),
		HomeScore:  rec.HomeScore,
		AwayID:     nullableInt64(rec.AwayID),
		AwayAbbr:   nullableString(rec.AwayAbbr),
		AwayScore:  rec.AwayScore,
		Duration:   nullableInt64(int64(rec.Duration)),
		Attendance: nullableInt64(int64(rec.Attendance)),
		ArenaName:  nullableString(rec.ArenaName),
	}
}
