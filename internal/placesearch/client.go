// Package placesearch is the client of the external place search provider.
//
// Every call goes through a rate limiter and a circuit breaker. Failures are
// reported as ErrUnavailable, ErrMalformedResponse or *StatusError so callers
// can tell a broken provider from an empty result.
package placesearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sakif/culinary-compass/internal/metrics"
	"github.com/sakif/culinary-compass/internal/model"
)

const (
	breakerName = "place-search"
	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 4 << 20

	// placeFields is the field set requested for every place.
	placeFields = "fsq_place_id,fsq_id,name,location,categories,website,menu,description,price,tastes,features"
)

// SearchRequest describes one nearby search.
type SearchRequest struct {
	Coordinates  model.Coordinates
	RadiusMeters int
	CategoryIDs  []string
	// Limit overrides Config.Limit when positive.
	Limit int
}

// MatchRequest looks a single venue up by name near a point.
type MatchRequest struct {
	Name        string
	Coordinates model.Coordinates
}

// Client talks to the provider's HTTP API.
type Client struct {
	http       *http.Client
	baseURL    *url.URL
	apiVersion string
	limit      int
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// New builds a client. The API key is attached to every request as a bearer
// token through an oauth2 transport.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("placesearch: api key is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("placesearch: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})

	c := &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
		baseURL:    base,
		apiVersion: cfg.APIVersion,
		limit:      cfg.Limit,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
	c.cb = newBreaker(cfg.Breaker, logger)
	return c, nil
}

func newBreaker(cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// Client errors say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return false
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Search returns the places within the radius of the coordinates, filtered
// to the given categories. An empty slice is a successful search with no
// results.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Place, error) {
	limit := c.limit
	if req.Limit > 0 {
		limit = req.Limit
	}

	q := url.Values{}
	q.Set("ll", req.Coordinates.String())
	if req.RadiusMeters > 0 {
		q.Set("radius", strconv.Itoa(req.RadiusMeters))
	}
	if len(req.CategoryIDs) > 0 {
		q.Set("fsq_category_ids", strings.Join(req.CategoryIDs, ","))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", placeFields)

	body, err := c.get(ctx, "search", "/places/search", q)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("placesearch: search: %w: %v", ErrMalformedResponse, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("placesearch: search: %w: no results field", ErrMalformedResponse)
	}
	for i, p := range *resp.Results {
		if p.ID == "" {
			return nil, fmt.Errorf("placesearch: search: %w: result %d has no id", ErrMalformedResponse, i)
		}
	}
	return *resp.Results, nil
}

// Match returns the provider's best match for a venue name near a point.
// It returns ErrNoMatch when the provider has none or the match carries no
// location.
func (c *Client) Match(ctx context.Context, req MatchRequest) (*Place, error) {
	q := url.Values{}
	q.Set("name", req.Name)
	q.Set("ll", req.Coordinates.String())
	q.Set("fields", placeFields)

	body, err := c.get(ctx, "match", "/places/match", q)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrNoMatch
		}
		return nil, err
	}

	var resp matchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("placesearch: match: %w: %v", ErrMalformedResponse, err)
	}
	if resp.Place == nil || resp.Place.Location.FormattedAddress == "" {
		return nil, ErrNoMatch
	}
	if resp.Place.ID == "" {
		return nil, fmt.Errorf("placesearch: match: %w: place has no id", ErrMalformedResponse)
	}
	return resp.Place, nil
}

// get performs one throttled, breaker-guarded GET and returns the body of a
// 2xx response.
func (c *Client) get(ctx context.Context, op, path string, q url.Values) ([]byte, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordPlaceSearch(op, "rejected", time.Since(start))
		return nil, fmt.Errorf("placesearch: %s: %w: %w", op, ErrUnavailable, err)
	}

	u := *c.baseURL
	u.Path += path
	u.RawQuery = q.Encode()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, u.String())
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			err = fmt.Errorf("%w: circuit %v", ErrUnavailable, err)
		}
		metrics.RecordPlaceSearch(op, outcome, time.Since(start))
		c.logger.Warn("place search failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("placesearch: %s: %w", op, err)
	}

	metrics.RecordPlaceSearch(op, "ok", time.Since(start))
	c.logger.Debug("place search ok",
		slog.String("operation", op),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiVersion != "" {
		req.Header.Set("X-Places-Api-Version", c.apiVersion)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
