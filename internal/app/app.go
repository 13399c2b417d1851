package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/courtwire/nba-ingest/external/nbalive"
	"github.com/courtwire/nba-ingest/internal/config"
	"github.com/courtwire/nba-ingest/internal/domain/season"
	"github.com/courtwire/nba-ingest/internal/infrastructure/repository/postgres"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
	"github.com/courtwire/nba-ingest/internal/platform/resilience"
	"github.com/courtwire/nba-ingest/internal/usecase"
)

// App owns the wired object graph for one CLI run.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Location *time.Location
	DB       *sqlx.DB
	Ingest   *usecase.IngestService
	Backfill *usecase.BackfillService
}

func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	loc, err := time.LoadLocation(cfg.LeagueTimezone)
	if err != nil {
		return nil, fmt.Errorf("load league timezone %q: %w", cfg.LeagueTimezone, err)
	}

	epochs, err := season.EpochsFromConfig(cfg.SeasonEpochs)
	if err != nil {
		return nil, fmt.Errorf("build epoch table: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var breaker *resilience.CircuitBreaker
	if cfg.ProviderCBEnabled {
		cb := resilience.NormalizeCircuitBreakerConfig(resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: cfg.ProviderCBFailureThreshold,
			OpenTimeout:      cfg.ProviderCBOpenTimeout,
			HalfOpenMaxReq:   cfg.ProviderCBHalfOpenMaxReq,
		})
		breaker = resilience.NewCircuitBreaker(cb.FailureThreshold, cb.OpenTimeout, cb.HalfOpenMaxReq)
	}

	client, err := nbalive.NewClient(nbalive.ClientConfig{
		BaseURL:    cfg.ProviderBaseURL,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ProviderMaxRetries,
		UserAgent:  cfg.ServiceName + "/" + cfg.ServiceVersion,
		Logger:     logger,
		Breaker:    breaker,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build provider client: %w", err)
	}

	gamesRepo := postgres.NewGameRepository(db, cfg.GamesTable)
	boxscoreRepo := postgres.NewBoxscoreRepository(db, cfg.BoxscoresTable)

	probe, err := usecase.NewProbeService(client, usecase.ProbeServiceConfig{
		Epochs:       epochs,
		Location:     loc,
		GamesPerDay:  cfg.MaxGamesPerDay,
		SafetyBuffer: cfg.SafetyBuffer,
		Workers:      cfg.ProbeWorkers,
		Logger:       logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build probe service: %w", err)
	}

	ingest, err := usecase.NewIngestService(client, probe, gamesRepo, boxscoreRepo, usecase.IngestServiceConfig{
		Location: loc,
		Logger:   logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build ingest service: %w", err)
	}

	backfill, err := usecase.NewBackfillService(ingest, usecase.BackfillServiceConfig{
		ChunkDays:  cfg.BackfillChunkDays,
		ChunkPause: cfg.BackfillChunkPause,
		Logger:     logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build backfill service: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		DB:       db,
		Ingest:   ingest,
		Backfill: backfill,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinaryResult)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	return db, nil
}
