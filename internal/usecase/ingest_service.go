package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/courtwire/nba-ingest/external/nbalive"
	"github.com/courtwire/nba-ingest/internal/domain/boxscore"
	"github.com/courtwire/nba-ingest/internal/domain/game"
	"github.com/courtwire/nba-ingest/internal/domain/season"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

// Summary tallies one ingestion run. Backfill merges per-chunk summaries
// into a run total.
type Summary struct {
	GamesLoaded      int
	PlayerRowsLoaded int
	ProbeFailures    int
	SkippedLoads     []string
}

func (s *Summary) merge(other *Summary) {
	if other == nil {
		return
	}
	s.GamesLoaded += other.GamesLoaded
	s.PlayerRowsLoaded += other.PlayerRowsLoaded
	s.ProbeFailures += other.ProbeFailures
	s.SkippedLoads = append(s.SkippedLoads, other.SkippedLoads...)
}

type IngestServiceConfig struct {
	Location *time.Location
	Logger   *logging.Logger
}

// IngestService drives one window end to end: rebuild the date index, fetch
// game payloads, append game rows, then fetch and append player boxscore
// rows for games whose play has begun. Loads are append-only; a pre-load
// guard skips a table's load when the window already holds rows.
type IngestService struct {
	provider  GameProvider
	probe     *ProbeService
	games     game.Repository
	boxscores boxscore.Repository
	loc       *time.Location
	logger    *logging.Logger
}

func NewIngestService(
	provider GameProvider,
	probe *ProbeService,
	games game.Repository,
	boxscores boxscore.Repository,
	cfg IngestServiceConfig,
) (*IngestService, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}
	if probe == nil {
		return nil, fmt.Errorf("%w: probe service is required", ErrInvalidInput)
	}
	if games == nil || boxscores == nil {
		return nil, fmt.Errorf("%w: repositories are required", ErrInvalidInput)
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("%w: league location is required", ErrInvalidInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &IngestService{
		provider:  provider,
		probe:     probe,
		games:     games,
		boxscores: boxscores,
		loc:       cfg.Location,
		logger:    logger,
	}, nil
}

// IngestDate ingests a single league civil date.
func (s *IngestService) IngestDate(ctx context.Context, date time.Time) (*Summary, error) {
	return s.IngestRange(ctx, date, date)
}

// IngestRange ingests every date in [start, end].
func (s *IngestService) IngestRange(ctx context.Context, start, end time.Time) (*Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.IngestRange")
	defer span.End()

	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	startDate := start.Format("2006-01-02")
	endDate := end.Format("2006-01-02")

	probed, err := s.probe.BuildIndex(ctx, start, end)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ProbeFailures: probed.TransientFailures}

	records, payloads := s.collectGames(ctx, probed.Index, summary)
	if len(records) == 0 {
		s.logger.InfoContext(ctx, "no games found in window", "start", startDate, "end", endDate)
		return summary, nil
	}

	loaded, err := s.loadGames(ctx, startDate, endDate, records, summary)
	if err != nil {
		return summary, err
	}
	if !loaded {
		return summary, nil
	}

	lines := s.collectPlayerLines(ctx, records, payloads, summary)
	if err := s.loadPlayerLines(ctx, startDate, endDate, lines, summary); err != nil {
		return summary, err
	}

	s.logger.InfoContext(ctx, "window ingested",
		"start", startDate,
		"end", endDate,
		"games_loaded", summary.GamesLoaded,
		"player_rows_loaded", summary.PlayerRowsLoaded,
		"probe_failures", summary.ProbeFailures,
	)

	return summary, nil
}

// collectGames resolves each indexed identifier to a game record, preferring
// the full boxscore payload and falling back to the schedule listing entry
// when the boxscore is not published yet.
func (s *IngestService) collectGames(ctx context.Context, index DateIndex, summary *Summary) ([]game.Record, map[string]*nbalive.Game) {
	records := make([]game.Record, 0, index.totalGames())
	payloads := make(map[string]*nbalive.Game)

	for _, date := range index.Dates() {
		listing := s.scoreboardByID(ctx, date, summary)

		for _, gameID := range index[date] {
			g, err := s.provider.Boxscore(ctx, gameID)
			if err == nil {
				payloads[gameID] = g
				records = append(records, s.gameRecord(*g, date))
				continue
			}
			if !errors.Is(err, nbalive.ErrNotFound) {
				summary.ProbeFailures++
				s.logger.WarnContext(ctx, "boxscore fetch failed", "game_id", gameID, "error", err)
			}
			if sg, ok := listing[gameID]; ok {
				records = append(records, s.gameRecord(sg, date))
			}
		}
	}
	return records, payloads
}

func (s *IngestService) scoreboardByID(ctx context.Context, date string, summary *Summary) map[string]nbalive.Game {
	games, err := s.provider.Scoreboard(ctx, date)
	if err != nil {
		summary.ProbeFailures++
		s.logger.WarnContext(ctx, "scoreboard fetch failed", "date", date, "error", err)
		return nil
	}

	byID := make(map[string]nbalive.Game, len(games))
	for _, g := range games {
		if g.GameID != "" {
			byID[g.GameID] = g
		}
	}
	return byID
}

func (s *IngestService) loadGames(ctx context.Context, startDate, endDate string, records []game.Record, summary *Summary) (bool, error) {
	existing, err := s.games.CountByDateRange(ctx, startDate, endDate)
	if err != nil {
		return false, fmt.Errorf("%w: games existence check: %v", ErrStoreWrite, err)
	}
	if existing > 0 {
		summary.SkippedLoads = append(summary.SkippedLoads, "games")
		s.logger.InfoContext(ctx, "games load skipped, rows already present",
			"start", startDate, "end", endDate, "existing_rows", existing)
		return false, nil
	}

	if err := s.games.BulkInsert(ctx, records); err != nil {
		return false, fmt.Errorf("%w: insert games: %v", ErrStoreWrite, err)
	}
	summary.GamesLoaded = len(records)
	return true, nil
}

// collectPlayerLines extracts stat lines for games whose status shows play
// has begun. Games indexed only through the schedule listing get one more
// boxscore attempt here, since stats may have published since the scan.
func (s *IngestService) collectPlayerLines(ctx context.Context, records []game.Record, payloads map[string]*nbalive.Game, summary *Summary) []boxscore.PlayerLine {
	var lines []boxscore.PlayerLine

	for _, rec := range records {
		if !game.Playable(rec.StatusType) {
			continue
		}

		payload, ok := payloads[rec.GameID]
		if !ok {
			g, err := s.provider.Boxscore(ctx, rec.GameID)
			if err != nil {
				if !errors.Is(err, nbalive.ErrNotFound) {
					summary.ProbeFailures++
					s.logger.WarnContext(ctx, "player stats fetch failed", "game_id", rec.GameID, "error", err)
				}
				continue
			}
			payload = g
		}

		lines = append(lines, s.playerLines(payload, rec.GameDate, rec.Season)...)
	}
	return lines
}

func (s *IngestService) loadPlayerLines(ctx context.Context, startDate, endDate string, lines []boxscore.PlayerLine, summary *Summary) error {
	if len(lines) == 0 {
		return nil
	}

	existing, err := s.boxscores.CountByDateRange(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("%w: boxscores existence check: %v", ErrStoreWrite, err)
	}
	if existing > 0 {
		summary.SkippedLoads = append(summary.SkippedLoads, "boxscores")
		s.logger.InfoContext(ctx, "boxscores load skipped, rows already present",
			"start", startDate, "end", endDate, "existing_rows", existing)
		return nil
	}

	if err := s.boxscores.BulkInsert(ctx, lines); err != nil {
		return fmt.Errorf("%w: insert boxscores: %v", ErrStoreWrite, err)
	}
	summary.PlayerRowsLoaded = len(lines)
	return nil
}

func (s *IngestService) gameRecord(g nbalive.Game, fallbackDate string) game.Record {
	date := game.NormalizeDate(s.loc, g.GameTimeUTC, fallbackDate)

	status := g.GameStatusText
	if status == "" && g.GameStatus != 0 {
		status = strconv.Itoa(g.GameStatus)
	}
	if status == "" {
		status = "Scheduled"
	}

	duration := 0
	if g.Duration != "" {
		if v, err := strconv.Atoi(g.Duration); err == nil {
			duration = v
		}
	}

	return game.Record{
		GameID:     g.GameID,
		GameUID:    g.GameCode,
		GameDate:   date,
		Season:     seasonForCivilDate(date),
		StatusType: status,
		HomeID:     g.HomeTeam.TeamID,
		HomeAbbr:   g.HomeTeam.TeamTricode,
		HomeScore:  g.HomeTeam.Score,
		AwayID:     g.AwayTeam.TeamID,
		AwayAbbr:   g.AwayTeam.TeamTricode,
		AwayScore:  g.AwayTeam.Score,
		Duration:   duration,
		Attendance: g.Attendance,
		ArenaName:  g.Arena.ArenaName,
	}
}

func (s *IngestService) playerLines(g *nbalive.Game, date string, seasonYear int) []boxscore.PlayerLine {
	var lines []boxscore.PlayerLine
	for _, team := range []nbalive.Team{g.HomeTeam, g.AwayTeam} {
		for _, p := range team.Players {
			if p.Status != "ACTIVE" {
				continue
			}
			st := p.Statistics
			lines = append(lines, boxscore.PlayerLine{
				GameID:     g.GameID,
				GameDate:   date,
				Season:     seasonYear,
				TeamID:     team.TeamID,
				TeamAbbr:   team.TeamTricode,
				PlayerID:   p.PersonID,
				PlayerName: p.Name,
				Starter:    p.Starter == "1",
				Minutes:    game.ParseMinutes(st.Minutes),
				Points:     st.Points,
				Rebounds:   st.ReboundsTotal,
				Assists:    st.Assists,
				Steals:     st.Steals,
				Blocks:     st.Blocks,
				Turnovers:  st.Turnovers,
				FGM:        st.FieldGoalsMade,
				FGA:        st.FieldGoalsAttempted,
				FGPct:      st.FieldGoalsPercentage,
				FG3M:       st.ThreePointersMade,
				FG3A:       st.ThreePointersAttempted,
				FG3Pct:     st.ThreePointersPercentage,
				FTM:        st.FreeThrowsMade,
				FTA:        st.FreeThrowsAttempted,
				FTPct:      st.FreeThrowsPercentage,
				OffReb:     st.ReboundsOffensive,
				DefReb:     st.ReboundsDefensive,
				Fouls:      st.FoulsPersonal,
				PlusMinus:  st.PlusMinusPoints,
				Position:   p.Position,
				JerseyNum:  p.JerseyNum,
			})
		}
	}
	return lines
}

func seasonForCivilDate(date string) int {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return season.SeasonForDate(parsed)
}
