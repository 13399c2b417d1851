package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtwire/nba-ingest/internal/app"
	"github.com/courtwire/nba-ingest/internal/config"
	"github.com/courtwire/nba-ingest/internal/observability"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
	"github.com/courtwire/nba-ingest/internal/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", "daily", "ingestion mode: daily or backfill")
	date := flag.String("date", "", "specific date to ingest (YYYY-MM-DD)")
	start := flag.String("start", "", "backfill start date (YYYY-MM-DD)")
	end := flag.String("end", "", "backfill end date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel))
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	// Flag errors must surface before any dependency is dialed.
	if *mode != "daily" && *mode != "backfill" {
		logger.Error("unknown mode", "mode", *mode)
		return 2
	}
	if *mode == "backfill" && (*start == "" || *end == "") {
		logger.Error("backfill requires -start and -end")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		return 1
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
			logger.Warn("pprof stop failed", "error", err)
		}
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		_ = application.Close()
	}()

	var summary *usecase.Summary
	switch *mode {
	case "daily":
		target, err := resolveDailyDate(*date, application.Location)
		if err != nil {
			logger.Error("invalid date", "date", *date, "error", err)
			return 2
		}
		summary, err = application.Ingest.IngestDate(ctx, target)
		if err != nil {
			return exitCode(logger, summary, err)
		}
	case "backfill":
		summary, err = application.Backfill.Run(ctx, usecase.BackfillRequest{Start: *start, End: *end})
		if err != nil {
			return exitCode(logger, summary, err)
		}
	}

	logSummary(logger, summary)
	return 0
}

// resolveDailyDate picks the explicit date when given, otherwise yesterday
// on the league clock.
func resolveDailyDate(raw string, loc *time.Location) (time.Time, error) {
	if raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, err
		}
		return parsed, nil
	}

	yesterday := time.Now().In(loc).AddDate(0, 0, -1)
	return time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC), nil
}

func exitCode(logger *logging.Logger, summary *usecase.Summary, err error) int {
	logSummary(logger, summary)
	logger.Error("ingestion failed", "error", err)
	if errors.Is(err, usecase.ErrInvalidInput) {
		return 2
	}
	return 1
}

func logSummary(logger *logging.Logger, summary *usecase.Summary) {
	if summary == nil {
		return
	}
	logger.Info("run summary",
		"games_loaded", summary.GamesLoaded,
		"player_rows_loaded", summary.PlayerRowsLoaded,
		"probe_failures", summary.ProbeFailures,
		"skipped_loads", summary.SkippedLoads,
	)
}
