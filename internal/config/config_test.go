package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/nba?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.MaxGamesPerDay)
	assert.Equal(t, 200, cfg.SafetyBuffer)
	assert.Equal(t, 60, cfg.BackfillChunkDays)
	assert.Equal(t, 10*time.Second, cfg.BackfillChunkPause)
	assert.Equal(t, 1, cfg.ProbeWorkers)
	assert.Equal(t, "America/New_York", cfg.LeagueTimezone)
	assert.Equal(t, "https://cdn.nba.com/static/json/liveData", cfg.ProviderBaseURL)
	assert.Equal(t, "games_daily", cfg.GamesTable)
	assert.Equal(t, "player_boxscores", cfg.BoxscoresTable)
	assert.Nil(t, cfg.SeasonEpochs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/nba")
	t.Setenv("MAX_GAMES_PER_DAY", "30")
	t.Setenv("PROBE_WORKERS", "4")
	t.Setenv("BACKFILL_CHUNK_PAUSE", "2s")
	t.Setenv("SEASON_EPOCHS", "002240:2024-10-22,002250:2025-10-21")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.MaxGamesPerDay)
	assert.Equal(t, 4, cfg.ProbeWorkers)
	assert.Equal(t, 2*time.Second, cfg.BackfillChunkPause)
	assert.Equal(t, map[string]string{
		"002240": "2024-10-22",
		"002250": "2025-10-21",
	}, cfg.SeasonEpochs)
}

func TestLoadUptraceRequiresDSN(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/nba")
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestParseEpochMap(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "two seasons",
			raw:  "002240:2024-10-22,002250:2025-10-21",
			want: map[string]string{
				"002240": "2024-10-22",
				"002250": "2025-10-21",
			},
		},
		{
			name: "whitespace tolerated",
			raw:  " 002240 : 2024-10-22 ",
			want: map[string]string{"002240": "2024-10-22"},
		},
		{name: "empty", raw: "", want: nil},
		{name: "missing date", raw: "002240", wantErr: true},
		{name: "bad anchor", raw: "002240:yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEpochMap(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
