package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

// BackfillRequest bounds a historical re-ingestion. Both dates are league
// civil dates in YYYY-MM-DD form and both are required; a backfill without
// bounds is a configuration error, not a default.
type BackfillRequest struct {
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"required,datetime=2006-01-02"`
}

type BackfillServiceConfig struct {
	ChunkDays  int
	ChunkPause time.Duration
	Logger     *logging.Logger

	// Sleep is injectable for tests; nil means real context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// BackfillService slices a long window into bounded chunks and ingests them
// sequentially with a pause in between, so a multi-month backfill cannot
// hammer the provider. Chunk failures are independent: one bad chunk is
// logged and the rest still run.
type BackfillService struct {
	ingest     *IngestService
	chunkDays  int
	chunkPause time.Duration
	validate   *validator.Validate
	logger     *logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewBackfillService(ingest *IngestService, cfg BackfillServiceConfig) (*BackfillService, error) {
	if ingest == nil {
		return nil, fmt.Errorf("%w: ingest service is required", ErrInvalidInput)
	}

	chunkDays := cfg.ChunkDays
	if chunkDays < 1 {
		chunkDays = 60
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &BackfillService{
		ingest:     ingest,
		chunkDays:  chunkDays,
		chunkPause: cfg.ChunkPause,
		validate:   validator.New(),
		logger:     logger,
		sleep:      sleep,
	}, nil
}

// Run validates the request, then ingests the window chunk by chunk. The
// returned summary covers all chunks. A store-write failure in any chunk
// fails the run, but only after every remaining chunk has had its turn.
func (s *BackfillService) Run(ctx context.Context, req BackfillRequest) (*Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Run")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: backfill requires start and end dates: %v", ErrInvalidInput, err)
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, req.Start)
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", ErrInvalidInput, req.End)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidInput, req.End, req.Start)
	}

	total := &Summary{}
	var storeFailures int

	for cur := start; !cur.After(end); {
		chunkEnd := cur.AddDate(0, 0, s.chunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		s.logger.InfoContext(ctx, "backfill chunk starting",
			"chunk_start", cur.Format("2006-01-02"),
			"chunk_end", chunkEnd.Format("2006-01-02"),
		)

		summary, err := s.ingest.IngestRange(ctx, cur, chunkEnd)
		total.merge(summary)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return total, err
			}
			if errors.Is(err, ErrStoreWrite) {
				storeFailures++
			}
			s.logger.ErrorContext(ctx, "backfill chunk failed",
				"chunk_start", cur.Format("2006-01-02"),
				"chunk_end", chunkEnd.Format("2006-01-02"),
				"error", err,
			)
		}

		cur = chunkEnd.AddDate(0, 0, 1)
		if !cur.After(end) && s.chunkPause > 0 {
			if err := s.sleep(ctx, s.chunkPause); err != nil {
				return total, err
			}
		}
	}

	s.logger.InfoContext(ctx, "backfill complete",
		"start", req.Start,
		"end", req.End,
		"games_loaded", total.GamesLoaded,
		"player_rows_loaded", total.PlayerRowsLoaded,
		"probe_failures", total.ProbeFailures,
		"store_failures", storeFailures,
	)

	if storeFailures > 0 {
		return total, fmt.Errorf("%w: %d chunk(s) failed to load", ErrStoreWrite, storeFailures)
	}
	return total, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
