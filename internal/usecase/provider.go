package usecase

import (
	"context"

	"github.com/courtwire/nba-ingest/external/nbalive"
)

// GameProvider is the slice of the live-stats client the services need.
type GameProvider interface {
	Boxscore(ctx context.Context, gameID string) (*nbalive.Game, error)
	Scoreboard(ctx context.Context, date string) ([]nbalive.Game, error)
}
