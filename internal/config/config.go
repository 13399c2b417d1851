package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime knob for the ingestion CLI. All values come
// from the environment so the binary can run unchanged in cron, CI, and
// local shells.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       string

	DBURL                         string
	DBMaxOpenConns                int
	DBMaxIdleConns                int
	DBConnMaxLifetime             time.Duration
	DBDisablePreparedBinaryResult bool

	ProviderBaseURL    string
	ProviderTimeout    time.Duration
	ProviderMaxRetries int

	ProviderCBEnabled          bool
	ProviderCBFailureThreshold int
	ProviderCBOpenTimeout      time.Duration
	ProviderCBHalfOpenMaxReq   int

	LeagueTimezone string

	// Heuristics for sizing the candidate identifier range. MaxGamesPerDay
	// is an upper bound on scheduled games per civil date, SafetyBuffer
	// absorbs postponements and schedule shuffles near the range end.
	MaxGamesPerDay int
	SafetyBuffer   int

	// SeasonEpochs maps an identifier prefix to its season anchor date,
	// parsed from SEASON_EPOCHS ("002240:2024-10-22,002250:2025-10-21").
	SeasonEpochs map[string]string

	ProbeWorkers int

	BackfillChunkDays  int
	BackfillChunkPause time.Duration

	GamesTable     string
	BoxscoresTable string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeAppName           string
	PyroscopeServerAddress     string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		ServiceName:    getEnv("SERVICE_NAME", "nba-ingest"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DBURL:                         getEnv("DB_URL", ""),
		DBMaxOpenConns:                getEnvAsInt("DB_MAX_OPEN_CONNS", 8),
		DBMaxIdleConns:                getEnvAsInt("DB_MAX_IDLE_CONNS", 4),
		DBConnMaxLifetime:             getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBDisablePreparedBinaryResult: getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", false),

		ProviderBaseURL:    getEnv("PROVIDER_BASE_URL", "https://cdn.nba.com/static/json/liveData"),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
		ProviderMaxRetries: getEnvAsInt("PROVIDER_MAX_RETRIES", 2),

		ProviderCBEnabled:          getEnvAsBool("PROVIDER_CB_ENABLED", true),
		ProviderCBFailureThreshold: getEnvAsInt("PROVIDER_CB_FAILURE_THRESHOLD", 5),
		ProviderCBOpenTimeout:      getEnvAsDuration("PROVIDER_CB_OPEN_TIMEOUT", 15*time.Second),
		ProviderCBHalfOpenMaxReq:   getEnvAsInt("PROVIDER_CB_HALF_OPEN_MAX_REQ", 2),

		LeagueTimezone: getEnv("LEAGUE_TIMEZONE", "America/New_York"),

		MaxGamesPerDay: getEnvAsInt("MAX_GAMES_PER_DAY", 25),
		SafetyBuffer:   getEnvAsInt("PROBE_SAFETY_BUFFER", 200),

		ProbeWorkers: getEnvAsInt("PROBE_WORKERS", 1),

		BackfillChunkDays:  getEnvAsInt("BACKFILL_CHUNK_DAYS", 60),
		BackfillChunkPause: getEnvAsDuration("BACKFILL_CHUNK_PAUSE", 10*time.Second),

		GamesTable:     getEnv("GAMES_TABLE", "games_daily"),
		BoxscoresTable: getEnv("BOXSCORES_TABLE", "player_boxscores"),

		UptraceEnabled: getEnvAsBool("UPTRACE_ENABLED", false),
		UptraceDSN:     getEnv("UPTRACE_DSN", ""),

		PyroscopeEnabled:           getEnvAsBool("PYROSCOPE_ENABLED", false),
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", "nba-ingest"),
		PyroscopeServerAddress:     getEnv("PYROSCOPE_SERVER_ADDRESS", ""),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		PyroscopeUploadRate:        getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second),

		PprofEnabled: getEnvAsBool("PPROF_ENABLED", false),
		PprofAddr:    getEnv("PPROF_ADDR", ":6060"),
	}

	epochs, err := parseEpochMap(getEnv("SEASON_EPOCHS", ""))
	if err != nil {
		return nil, err
	}
	cfg.SeasonEpochs = epochs

	if cfg.DBURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	if cfg.ProviderMaxRetries < 0 {
		return nil, fmt.Errorf("PROVIDER_MAX_RETRIES must be >= 0")
	}
	if cfg.MaxGamesPerDay < 1 {
		return nil, fmt.Errorf("MAX_GAMES_PER_DAY must be >= 1")
	}
	if cfg.SafetyBuffer < 0 {
		return nil, fmt.Errorf("PROBE_SAFETY_BUFFER must be >= 0")
	}
	if cfg.ProbeWorkers < 1 {
		return nil, fmt.Errorf("PROBE_WORKERS must be >= 1")
	}
	if cfg.BackfillChunkDays < 1 {
		return nil, fmt.Errorf("BACKFILL_CHUNK_DAYS must be >= 1")
	}
	if cfg.UptraceEnabled && strings.TrimSpace(cfg.UptraceDSN) == "" {
		return nil, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && strings.TrimSpace(cfg.PyroscopeServerAddress) == "" {
		return nil, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

// parseEpochMap parses "prefix:anchor-date" pairs separated by commas, e.g.
// "002240:2024-10-22,002250:2025-10-21". Anchor dates stay as strings here;
// the season package owns their interpretation.
func parseEpochMap(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid SEASON_EPOCHS entry %q, want prefix:date", pair)
		}
		prefix := strings.TrimSpace(parts[0])
		anchor := strings.TrimSpace(parts[1])
		if prefix == "" || anchor == "" {
			return nil, fmt.Errorf("invalid SEASON_EPOCHS entry %q, want prefix:date", pair)
		}
		if _, err := time.Parse("2006-01-02", anchor); err != nil {
			return nil, fmt.Errorf("invalid SEASON_EPOCHS anchor %q: %w", anchor, err)
		}
		out[prefix] = anchor
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
