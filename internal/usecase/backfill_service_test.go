package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courtwire/nba-ingest/external/nbalive"
	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

func newTestBackfill(t *testing.T, provider GameProvider, games *stubGameRepo, boxscores *stubBoxscoreRepo, chunkDays int, sleeps *int) *BackfillService {
	t.Helper()

	svc := newTestServices(t, provider, games, boxscores)
	backfill, err := NewBackfillService(svc, BackfillServiceConfig{
		ChunkDays:  chunkDays,
		ChunkPause: 10 * time.Second,
		Logger:     logging.NewNop(),
		Sleep: func(context.Context, time.Duration) error {
			if sleeps != nil {
				*sleeps++
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewBackfillService: %v", err)
	}
	return backfill
}

func TestBackfillRequiresBothBounds(t *testing.T) {
	provider := &stubProvider{}
	backfill := newTestBackfill(t, provider, &stubGameRepo{}, &stubBoxscoreRepo{}, 60, nil)

	tests := []BackfillRequest{
		{},
		{Start: "2024-10-22"},
		{End: "2024-10-26"},
		{Start: "october", End: "2024-10-26"},
	}

	for _, req := range tests {
		_, err := backfill.Run(context.Background(), req)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Run(%+v) err = %v, want ErrInvalidInput", req, err)
		}
	}

	// Validation failures must never reach the provider.
	if provider.boxscoreCalls != 0 {
		t.Fatalf("provider was called %d times before validation passed", provider.boxscoreCalls)
	}
}

func TestBackfillRejectsInvertedBounds(t *testing.T) {
	backfill := newTestBackfill(t, &stubProvider{}, &stubGameRepo{}, &stubBoxscoreRepo{}, 60, nil)

	_, err := backfill.Run(context.Background(), BackfillRequest{Start: "2024-10-26", End: "2024-10-22"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBackfillChunksAndPauses(t *testing.T) {
	provider := &stubProvider{}
	sleeps := 0
	backfill := newTestBackfill(t, provider, &stubGameRepo{}, &stubBoxscoreRepo{}, 2, &sleeps)

	// Five days with two-day chunks: three chunks, two pauses.
	summary, err := backfill.Run(context.Background(), BackfillRequest{Start: "2024-10-22", End: "2024-10-26"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary == nil {
		t.Fatal("summary is nil")
	}
	if sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2", sleeps)
	}
}

func TestBackfillStoreFailureFailsRunAfterAllChunks(t *testing.T) {
	// Games exist in the first and second chunks and every insert fails.
	// The run must still visit all three chunks, then report the failure.
	provider := &stubProvider{
		games: map[string]*nbalive.Game{
			"0022400000": testGame("0022400000", "2024-10-22T23:00:00Z", "Final"),
			"0022400006": testGame("0022400006", "2024-10-25T23:00:00Z", "Final"),
		},
	}
	games := &stubGameRepo{insertErr: fmt.Errorf("disk full")}
	sleeps := 0
	backfill := newTestBackfill(t, provider, games, &stubBoxscoreRepo{}, 2, &sleeps)

	_, err := backfill.Run(context.Background(), BackfillRequest{Start: "2024-10-22", End: "2024-10-26"})
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("err = %v, want ErrStoreWrite", err)
	}
	if sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2 (all chunks must run)", sleeps)
	}
	if games.insertCalls != 2 {
		t.Fatalf("insert calls = %d, want 2", games.insertCalls)
	}
}
