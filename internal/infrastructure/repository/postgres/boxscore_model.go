package postgres

import "github.com/courtwire/nba-ingest/internal/domain/boxscore"

type playerLineInsertModel struct {
	GameID     string  `db:"game_id"`
	GameDate   string  `db:"game_date"`
	Season     int     `db:"season"`
	TeamID     *int64  `db:"team_id"`
	TeamAbbr   *string `db:"team_abbr"`
	PlayerID   *int64  `db:"player_id"`
	PlayerName *string `db:"player_name"`
	Starter    bool    `db:"starter"`
	Minutes    string  `db:"minutes"`
	Points     int     `db:"pts"`
	Rebounds   int     `db:"reb"`
	Assists    int     `db:"ast"`
	Steals     int     `db:"stl"`
	Blocks     int     `db:"blk"`
	Turnovers  int     `db:"tov"`
	FGM        int     `db:"fgm"`
	FGA        int     `db:"fga"`
	FGPct      float64 `db:"fg_pct"`
	FG3M       int     `db:"fg3m"`
	FG3A       int     `db:"fg3a"`
	FG3Pct     float64 `db:"fg3_pct"`
	FTM        int     `db:"ftm"`
	FTA        int     `db:"fta"`
	FTPct      float64 `db:"ft_pct"`
	OffReb     int     `db:"oreb"`
	DefReb     int     `db:"dreb"`
	Fouls      int     `db:"pf"`
	PlusMinus  float64 `db:"plus_minus"`
	Position   *string `db:"position"`
	JerseyNum  *string `db:"jersey_num"`
}

func newPlayerLineInsertModel(line boxscore.PlayerLine) playerLineInsertModel {
	return playerLineInsertModel{
		GameID:     line.GameID,
		GameDate:   line.GameDate,
		Season:     line.Season,
		TeamID:     nullableInt64(line.TeamID),
		TeamAbbr:   nullableString(line.TeamAbbr),
		PlayerID:   nullableInt64(line.PlayerID),
		PlayerName: nullableString(line.PlayerName),
		Starter:    line.Starter,
		Minutes:    line.Minutes,
		Points:     line.Points,
		Rebounds:   line.Rebounds,
		Assists:    line.Assists,
		Steals:     line.Steals,
		Blocks:     line.Blocks,
		Turnovers:  line.Turnovers,
		FGM:        line.FGM,
		FGA:        line.FGA,
		FGPct:      line.FGPct,
		FG3M:       line.FG3M,
		FG3A:       line.FG3A,
		FG3Pct:     line.FG3Pct,
		FTM:        line.FTM,
		FTA:        line.FTA,
		FTPct:      line.FTPct,
		OffReb:     line.OffReb,
		DefReb:     line.DefReb,
		Fouls:      line.Fouls,
		PlusMinus:  line.PlusMinus,
		Position:   nullableString(line.Position),
		JerseyNum:  nullableString(line.JerseyNum),
	}
}
