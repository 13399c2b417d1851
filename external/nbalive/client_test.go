package nbalive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/courtwire/nba-ingest/internal/platform/logging"
)

func newTestClient(t *testing.T, handler http.Handler, maxRetries int) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		MaxRetries: maxRetries,
		HTTPClient: srv.Client(),
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestBoxscoreDecodesGame(t *testing.T) {
	payload := `{"game":{"gameId":"0022400123","gameCode":"20241128/BOSNYK","gameStatusText":"Final",` +
		`"gameTimeUTC":"2024-11-29T00:30:00Z",` +
		`"homeTeam":{"teamId":1610612752,"teamTricode":"NYK","score":112,` +
		`"players":[{"personId":203944,"name":"Julius Randle","status":"ACTIVE","starter":"1",` +
		`"statistics":{"minutes":"PT32M33.00S","points":24,"reboundsTotal":9,"assists":5}}]},` +
		`"awayTeam":{"teamId":1610612738,"teamTricode":"BOS","score":108,"players":[]}}}`

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boxscore/boxscore_0022400123.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(payload))
	}), 0)

	game, err := client.Boxscore(context.Background(), "0022400123")
	if err != nil {
		t.Fatalf("Boxscore: %v", err)
	}

	if game.GameID != "0022400123" {
		t.Fatalf("GameID = %q", game.GameID)
	}
	if game.HomeTeam.Score != 112 || game.AwayTeam.TeamTricode != "BOS" {
		t.Fatalf("teams decoded wrong: %+v", game)
	}
	if len(game.HomeTeam.Players) != 1 {
		t.Fatalf("players = %d, want 1", len(game.HomeTeam.Players))
	}
	p := game.HomeTeam.Players[0]
	if p.Status != "ACTIVE" || p.Statistics.Points != 24 || p.Statistics.Minutes != "PT32M33.00S" {
		t.Fatalf("player decoded wrong: %+v", p)
	}
}

func TestBoxscoreNotFoundStatus(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}), 2)

	_, err := client.Boxscore(context.Background(), "0022409999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("not-found was retried %d times, want 1 call", got)
	}
}

func TestBoxscoreMissingGameKeyIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"version":1}}`))
	}), 0)

	_, err := client.Boxscore(context.Background(), "0022400001")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBoxscoreRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"game":{"gameId":"0022400050"}}`))
	}), 2)

	game, err := client.Boxscore(context.Background(), "0022400050")
	if err != nil {
		t.Fatalf("Boxscore: %v", err)
	}
	if game.GameID != "0022400050" {
		t.Fatalf("GameID = %q", game.GameID)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestBoxscoreExhaustedRetriesIsTransient(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), 2)

	_, err := client.Boxscore(context.Background(), "0022400050")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestBoxscoreRetriesMalformedBodyThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"game": {`))
			return
		}
		_, _ = w.Write([]byte(`{"game":{"gameId":"0022400050"}}`))
	}), 2)

	game, err := client.Boxscore(context.Background(), "0022400050")
	if err != nil {
		t.Fatalf("Boxscore: %v", err)
	}
	if game.GameID != "0022400050" {
		t.Fatalf("GameID = %q", game.GameID)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestBoxscorePersistentMalformedBodyIsTransient(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json at all`))
	}), 1)

	_, err := client.Boxscore(context.Background(), "0022400050")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestScoreboardListsGames(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("gameDate"); got != "2024-11-28" {
			t.Fatalf("gameDate = %q", got)
		}
		_, _ = w.Write([]byte(`{"scoreboard":{"gameDate":"2024-11-28","games":[` +
			`{"gameId":"0022400200","gameTimeUTC":"2024-11-29T00:00:00Z"},` +
			`{"gameId":"0022400201","gameTimeUTC":"2024-11-29T02:30:00Z"}]}}`))
	}), 0)

	games, err := client.Scoreboard(context.Background(), "2024-11-28")
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("games = %d, want 2", len(games))
	}
	if games[0].GameID != "0022400200" || games[1].GameID != "0022400201" {
		t.Fatalf("unexpected ids: %+v", games)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
