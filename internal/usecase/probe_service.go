package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/courtwire/nba-ingest/external/nbalive"
	"github.com/courtwire/nba-ingest/internal/domain/game"
	"github.com/courtwire/nba-ingest/internal/domain/season"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

// DateIndex maps a league civil date (YYYY-MM-DD) to the sorted, unique game
// identifiers played on it.
type DateIndex map[string][]string

// ProbeResult is a rebuilt index plus the failure tally from the scan.
// Transient failures never abort a scan, they only reduce coverage.
type ProbeResult struct {
	Index             DateIndex
	TransientFailures int
}

type ProbeServiceConfig struct {
	Epochs       []season.Epoch
	Location     *time.Location
	GamesPerDay  int
	SafetyBuffer int
	Workers      int
	Logger       *logging.Logger
}

// ProbeService rebuilds the date-to-games index for a window by linearly
// probing every candidate identifier the estimator admits, then unioning in
// the provider's schedule listing per date.
type ProbeService struct {
	provider     GameProvider
	epochs       []season.Epoch
	loc          *time.Location
	gamesPerDay  int
	safetyBuffer int
	workers      int
	logger       *logging.Logger
}

func NewProbeService(provider GameProvider, cfg ProbeServiceConfig) (*ProbeService, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}
	if len(cfg.Epochs) == 0 {
		return nil, fmt.Errorf("%w: epoch table is required", ErrInvalidInput)
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("%w: league location is required", ErrInvalidInput)
	}
	if cfg.GamesPerDay < 1 {
		return nil, fmt.Errorf("%w: games per day must be >= 1", ErrInvalidInput)
	}
	if cfg.SafetyBuffer < 0 {
		return nil, fmt.Errorf("%w: safety buffer must be >= 0", ErrInvalidInput)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &ProbeService{
		provider:     provider,
		epochs:       cfg.Epochs,
		loc:          cfg.Location,
		gamesPerDay:  cfg.GamesPerDay,
		safetyBuffer: cfg.SafetyBuffer,
		workers:      workers,
		logger:       logger,
	}, nil
}

// BuildIndex rebuilds the date index for [start, end]. Identifier probes that
// miss are skipped silently, transient failures are counted and skipped, and
// a single-date window with no probe hits falls back to the schedule listing
// alone.
func (s *ProbeService) BuildIndex(ctx context.Context, start, end time.Time) (*ProbeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProbeService.BuildIndex")
	defer span.End()

	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	ranges, err := season.PartitionRange(s.epochs, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	acc := newIndexAccumulator(start, end)

	for _, r := range ranges {
		if err := s.scanRange(ctx, r, acc); err != nil {
			return nil, err
		}
	}

	if err := s.unionScoreboard(ctx, start, end, acc); err != nil {
		return nil, err
	}

	index := acc.finish()

	s.logger.InfoContext(ctx, "date index rebuilt",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"dates", len(index),
		"games", index.totalGames(),
		"transient_failures", acc.failures(),
	)

	return &ProbeResult{Index: index, TransientFailures: acc.failures()}, nil
}

// scanRange probes every candidate identifier of one epoch-homogeneous date
// range.
func (s *ProbeService) scanRange(ctx context.Context, r season.DateRange, acc *indexAccumulator) error {
	seqs, ok := season.EstimateRange(r.Epoch, r.End, s.gamesPerDay, s.safetyBuffer)
	if !ok {
		return nil
	}

	// Games whose timestamp never normalizes still belong somewhere in the
	// scanned window; bucket them under its first date.
	fallbackDate := r.Start.Format("2006-01-02")

	if s.workers <= 1 {
		for seq := seqs.Start; seq <= seqs.End; seq++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.probeOne(ctx, r.Epoch, seq, fallbackDate, acc)
		}
		return nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("%w: start probe pool: %v", ErrDependencyUnavailable, err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for seq := seqs.Start; seq <= seqs.End; seq++ {
		if err := ctx.Err(); err != nil {
			break
		}
		seq := seq
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.probeOne(ctx, r.Epoch, seq, fallbackDate, acc)
		}); err != nil {
			wg.Done()
			acc.recordFailure()
		}
	}
	wg.Wait()
	return ctx.Err()
}

func (s *ProbeService) probeOne(ctx context.Context, epoch season.Epoch, seq int, fallbackDate string, acc *indexAccumulator) {
	gameID := epoch.FormatGameID(seq)

	g, err := s.provider.Boxscore(ctx, gameID)
	if err != nil {
		if errors.Is(err, nbalive.ErrNotFound) {
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		acc.recordFailure()
		s.logger.WarnContext(ctx, "probe failed", "game_id", gameID, "error", err)
		return
	}

	date := game.NormalizeDate(s.loc, g.GameTimeUTC, fallbackDate)
	acc.add(date, gameID)
}

// unionScoreboard folds the per-date schedule listing into the accumulator.
// For dates the probe scan cannot reach (today, the future) this is the only
// source; for historical dates it backstops schedule shuffles.
func (s *ProbeService) unionScoreboard(ctx context.Context, start, end time.Time, acc *indexAccumulator) error {
	singleDate := start.Equal(end)

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds := cur.Format("2006-01-02")

		games, err := s.provider.Scoreboard(ctx, ds)
		if err != nil {
			acc.recordFailure()
			s.logger.WarnContext(ctx, "scoreboard fetch failed", "date", ds, "error", err)
			continue
		}

		for _, g := range games {
			if g.GameID == "" {
				continue
			}
			acc.add(game.NormalizeDate(s.loc, g.GameTimeUTC, ds), g.GameID)
		}

		// Single-date fallback: when neither probes nor normalized listing
		// entries landed anywhere, trust the listing for the requested date
		// even if its timestamps normalize elsewhere.
		if singleDate && acc.empty() {
			for _, g := range games {
				if g.GameID != "" {
					acc.add(ds, g.GameID)
				}
			}
		}
	}
	return nil
}

// indexAccumulator collects probe and scoreboard hits. It is safe for
// concurrent use so a worker pool can feed it directly.
type indexAccumulator struct {
	mu           sync.Mutex
	startDate    string
	endDate      string
	buckets      map[string][]string
	failureCount int
}

func newIndexAccumulator(start, end time.Time) *indexAccumulator {
	return &indexAccumulator{
		startDate: start.Format("2006-01-02"),
		endDate:   end.Format("2006-01-02"),
		buckets:   make(map[string][]string),
	}
}

func (a *indexAccumulator) add(date, gameID string) {
	if date == "" || gameID == "" {
		return
	}
	if date < a.startDate || date > a.endDate {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets[date] = append(a.buckets[date], gameID)
}

func (a *indexAccumulator) recordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failureCount++
}

func (a *indexAccumulator) empty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buckets) == 0
}

func (a *indexAccumulator) failures() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failureCount
}

// finish sorts and deduplicates every bucket so the index is deterministic
// regardless of probe completion order.
func (a *indexAccumulator) finish() DateIndex {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(DateIndex, len(a.buckets))
	for date, ids := range a.buckets {
		sort.Strings(ids)
		deduped := ids[:0]
		var prev string
		for _, id := range ids {
			if id == prev {
				continue
			}
			deduped = append(deduped, id)
			prev = id
		}
		out[date] = append([]string(nil), deduped...)
	}
	return out
}

// Dates returns the index keys in ascending order.
func (idx DateIndex) Dates() []string {
	out := make([]string, 0, len(idx))
	for d := range idx {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (idx DateIndex) totalGames() int {
	total := 0
	for _, ids := range idx {
		total += len(ids)
	}
	return total
}
