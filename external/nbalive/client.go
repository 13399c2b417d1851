package nbalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/courtwire/nba-ingest/internal/platform/logging"
	"github.com/courtwire/nba-ingest/internal/platform/resilience"
)

const maxResponseBytes = 6 << 20

// Classification sentinels. Callers branch with errors.Is, never on error
// text.
var (
	// ErrNotFound marks an identifier the provider has never issued. Probe
	// scans treat it as a routine miss.
	ErrNotFound = crerr.New("nbalive: resource not found")

	// ErrTransient marks an upstream failure that survived every retry.
	// Malformed response bodies fall in here too: the CDN intermittently
	// serves truncated JSON, so a decode failure earns the same retries as
	// a 5xx before it is declared terminal.
	ErrTransient = crerr.New("nbalive: transient upstream failure")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = crerr.New("nbalive: provider unavailable")
)

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	HTTPClient *http.Client
	Logger     *logging.Logger
	Breaker    *resilience.CircuitBreaker
}

// Client talks to the live-stats CDN. It retries transient failures with
// linear backoff, collapses duplicate in-flight requests, and trips a
// circuit breaker on sustained upstream trouble.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	userAgent  string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("nbalive: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		userAgent:  cfg.UserAgent,
		logger:     logger,
		breaker:    cfg.Breaker,
	}, nil
}

// Boxscore fetches the full game payload for one identifier. Identifiers the
// provider never issued return ErrNotFound.
func (c *Client) Boxscore(ctx context.Context, gameID string) (*Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("nbalive: game id is required")
	}

	path := fmt.Sprintf("/boxscore/boxscore_%s.json", gameID)
	result, err := c.get(ctx, path, nil, func(body []byte) (any, error) {
		var envelope boxscoreEnvelope
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode boxscore payload: %w", err)
		}
		return &envelope, nil
	})
	if err != nil {
		return nil, err
	}

	envelope, ok := result.(*boxscoreEnvelope)
	if !ok {
		return nil, fmt.Errorf("nbalive: unexpected payload type %T", result)
	}
	if envelope.Game == nil {
		return nil, ErrNotFound
	}
	return envelope.Game, nil
}

// Scoreboard fetches the schedule listing. An empty date asks for the
// provider's current slate.
func (c *Client) Scoreboard(ctx context.Context, date string) ([]Game, error) {
	query := url.Values{}
	if date = strings.TrimSpace(date); date != "" {
		query.Set("gameDate", date)
	}

	result, err := c.get(ctx, "/scoreboard/todaysScoreboard_00.json", query, func(body []byte) (any, error) {
		var envelope scoreboardEnvelope
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode scoreboard payload: %w", err)
		}
		return &envelope, nil
	})
	if err != nil {
		return nil, err
	}

	envelope, ok := result.(*scoreboardEnvelope)
	if !ok {
		return nil, fmt.Errorf("nbalive: unexpected payload type %T", result)
	}
	return envelope.Scoreboard.Games, nil
}

// decodeFunc turns a 200 response body into a typed payload. A decode
// failure is treated as a retryable attempt, not a terminal error.
type decodeFunc func(body []byte) (any, error)

// get runs one logical request: singleflight-deduplicated, breaker-guarded,
// retried with linear backoff on retryable failures. The decode runs inside
// the retry loop so a garbled body earns another attempt like any other
// transient failure.
func (c *Client) get(ctx context.Context, path string, query url.Values, decode decodeFunc) (any, error) {
	key := path
	if len(query) > 0 {
		key = path + "?" + query.Encode()
	}

	result, err, _ := c.flight.Do(key, func() (any, error) {
		return c.fetchWithRetry(ctx, path, query, decode)
	})
	return result, err
}

func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values, decode decodeFunc) (any, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, ErrUnavailable
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		body, retryable, err := c.fetchOnce(ctx, path, query)
		if err == nil {
			value, decodeErr := decode(body)
			if decodeErr == nil {
				if c.breaker != nil {
					c.breaker.RecordSuccess()
				}
				return value, nil
			}
			err = decodeErr
			retryable = true
		}

		if !retryable {
			if c.breaker != nil && !crerr.Is(err, ErrNotFound) {
				c.breaker.RecordFailure()
			}
			return nil, err
		}

		lastErr = err
		c.logger.WarnContext(ctx, "nbalive request failed",
			"path", path,
			"attempt", attempt+1,
			"max_attempts", c.maxRetries+1,
			"error", err,
		)
	}

	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
	return nil, crerr.WithDetail(ErrTransient, lastErr.Error())
}

// fetchOnce issues a single HTTP GET. The second return reports whether the
// failure is worth another attempt.
func (c *Client) fetchOnce(ctx context.Context, path string, query url.Values) ([]byte, bool, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		// The CDN answers 403 for identifiers it never minted.
		return nil, false, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d for %s", resp.StatusCode, requestPreview(req))
		if isRetryableStatus(resp.StatusCode) {
			return nil, true, err
		}
		return nil, false, crerr.WithDetail(ErrTransient, err.Error())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// requestPreview renders "GET <url>" for log lines without allocating a
// fresh builder per failure.
func requestPreview(req *http.Request) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(req.Method)
	_, _ = buf.WriteString(" ")
	_, _ = buf.WriteString(req.URL.String())
	return buf.String()
}
