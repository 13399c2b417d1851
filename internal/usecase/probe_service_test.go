package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtwire/nba-ingest/external/nbalive"
	"github.com/courtwire/nba-ingest/internal/domain/season"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

func newTestProbe(t *testing.T, provider GameProvider, workers int) *ProbeService {
	t.Helper()

	probe, err := NewProbeService(provider, ProbeServiceConfig{
		Epochs:       testEpochs,
		Location:     time.UTC,
		GamesPerDay:  2,
		SafetyBuffer: 3,
		Workers:      workers,
		Logger:       logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewProbeService: %v", err)
	}
	return probe
}

func TestBuildIndexSkipsMissesFindsLaterIDs(t *testing.T) {
	// Sequences 0 through 9 were never issued; sequence 10 was. The scan
	// must walk past the misses without recording failures.
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400010": testGame("0022400010", "2024-10-26T23:00:00Z", "Final"),
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if res.TransientFailures != 0 {
		t.Fatalf("TransientFailures = %d, want 0", res.TransientFailures)
	}
	ids := res.Index["2024-10-26"]
	if len(ids) != 1 || ids[0] != "0022400010" {
		t.Fatalf("index = %v", res.Index)
	}
}

func TestBuildIndexCountsTransientFailures(t *testing.T) {
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400000": testGame("0022400000", "2024-10-22T23:00:00Z", "Final"),
		},
		boxscoreErrs: map[string]error{
			"0022400003": nbalive.ErrTransient,
			"0022400007": nbalive.ErrTransient,
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if res.TransientFailures != 2 {
		t.Fatalf("TransientFailures = %d, want 2", res.TransientFailures)
	}
	if len(res.Index["2024-10-22"]) != 1 {
		t.Fatalf("found games = %v", res.Index)
	}
}

func TestBuildIndexDeduplicatesScoreboardOverlap(t *testing.T) {
	// The same game arrives from a probe hit and the schedule listing. The
	// bucket must hold it once.
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400001": testGame("0022400001", "2024-10-22T23:00:00Z", "Final"),
		},
		scoreboards: map[string][]nbalive.Game{
			"2024-10-22": {{GameID: "0022400001", GameTimeUTC: "2024-10-22T23:00:00Z"}},
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 22))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	ids := res.Index["2024-10-22"]
	if len(ids) != 1 || ids[0] != "0022400001" {
		t.Fatalf("ids = %v, want single 0022400001", ids)
	}
}

func TestBuildIndexExcludesDatesOutsideWindow(t *testing.T) {
	// A probe hit whose civil date normalizes outside the window must not
	// leak into the index.
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400000": testGame("0022400000", "2024-10-20T23:00:00Z", "Final"),
			"0022400004": testGame("0022400004", "2024-10-24T23:00:00Z", "Final"),
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 23), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if _, ok := res.Index["2024-10-20"]; ok {
		t.Fatalf("out-of-window date leaked into index: %v", res.Index)
	}
	if len(res.Index["2024-10-24"]) != 1 {
		t.Fatalf("in-window game missing: %v", res.Index)
	}
}

func TestBuildIndexBucketsUnparseableTimestampUnderRangeStart(t *testing.T) {
	// A found game must land in the index even when its timestamp is junk;
	// the scan range's first date stands in for the missing civil date.
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400002": testGame("0022400002", "TBD", "Final"),
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	ids := res.Index["2024-10-22"]
	if len(ids) != 1 || ids[0] != "0022400002" {
		t.Fatalf("index = %v, want 0022400002 under 2024-10-22", res.Index)
	}
}

func TestBuildIndexWorkerPoolMatchesSequential(t *testing.T) {
	games := map[string]*nbalive.Game{
		"0022400000": testGame("0022400000", "2024-10-22T23:00:00Z", "Final"),
		"0022400001": testGame("0022400001", "2024-10-22T21:00:00Z", "Final"),
		"0022400006": testGame("0022400006", "2024-10-25T23:00:00Z", "Final"),
	}

	seqRes, err := newTestProbe(t, &stubProvider{games: games}, 1).BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("sequential BuildIndex: %v", err)
	}

	poolRes, err := newTestProbe(t, &stubProvider{games: games}, 4).BuildIndex(context.Background(),
		season.Date(2024, time.October, 22), season.Date(2024, time.October, 26))
	if err != nil {
		t.Fatalf("pooled BuildIndex: %v", err)
	}

	if len(seqRes.Index) != len(poolRes.Index) {
		t.Fatalf("index sizes differ: %v vs %v", seqRes.Index, poolRes.Index)
	}
	for date, want := range seqRes.Index {
		got := poolRes.Index[date]
		if len(got) != len(want) {
			t.Fatalf("date %s: %v vs %v", date, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("date %s ordering differs: %v vs %v", date, got, want)
			}
		}
	}
}

func TestBuildIndexRejectsInvertedWindow(t *testing.T) {
	probe := newTestProbe(t, &stubProvider{}, 1)

	_, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 26), season.Date(2024, time.October, 22))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildIndexWindowBeforeEpochUsesScoreboardOnly(t *testing.T) {
	// The window predates the anchor, so the estimator yields no candidates
	// and only the schedule listing can populate the index.
	provider := &stubProvider{
		scoreboards: map[string][]nbalive.Game{
			"2024-10-01": {{GameID: "0012400001", GameTimeUTC: "2024-10-01T23:00:00Z"}},
		},
	}
	probe := newTestProbe(t, provider, 1)

	res, err := probe.BuildIndex(context.Background(),
		season.Date(2024, time.October, 1), season.Date(2024, time.October, 1))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if provider.boxscoreCalls != 0 {
		t.Fatalf("boxscore probes = %d, want 0 before the anchor", provider.boxscoreCalls)
	}
	if len(res.Index["2024-10-01"]) != 1 {
		t.Fatalf("index = %v", res.Index)
	}
}
