package placesearch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/culinary-compass/internal/model"
)

var london = model.Coordinates{Lat: 51.5072, Lng: -0.1276}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.RequestsPerSecond = 0
	cfg.Timeout = 2 * time.Second

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := New(cfg, logger)
	require.NoError(t, err)
	return c
}

// ============================================================
// Search
// ============================================================

func TestSearch_DecodesPlaces(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"fsq_place_id":"p1","name":"Franco Manca",
			 "location":{"formatted_address":"4 Market Row"},
			 "categories":[{"fsq_category_id":"4bf58dd8","name":"Pizzeria","short_name":"Pizza"}],
			 "price":2,"tastes":["sourdough","cheap"],
			 "features":{"food_and_drink":{"meals":{"dinner":true}},"attributes":{"noisy":"Average"}}},
			{"fsq_id":"p2","name":"Monmouth","location":{"formatted_address":"27 Monmouth St"},
			 "categories":[{"id":13032,"name":"Café","short_name":"Cafe"}],
			 "menu":{"url":"https://example.com/menu"}}
		]}`))
	})

	places, err := c.Search(context.Background(), SearchRequest{
		Coordinates:  london,
		RadiusMeters: 5000,
		CategoryIDs:  []string{"13064", "13032"},
	})
	require.NoError(t, err)
	require.Len(t, places, 2)

	assert.Equal(t, "p1", places[0].ID)
	assert.Equal(t, "4 Market Row", places[0].Location.FormattedAddress)
	assert.Equal(t, []PlaceCategory{{ID: "4bf58dd8", Name: "Pizzeria", ShortName: "Pizza"}}, places[0].Categories)
	assert.Equal(t, 2, places[0].Price)
	assert.Equal(t, []string{"sourdough", "cheap"}, places[0].Tastes)
	require.NotNil(t, places[0].Features)
	assert.Contains(t, places[0].Features, "food_and_drink")

	assert.Equal(t, "p2", places[1].ID)
	assert.Equal(t, "13032", places[1].Categories[0].ID)
	assert.Equal(t, "https://example.com/menu", places[1].Menu)
	assert.Nil(t, places[1].Features)

	require.NotNil(t, got)
	assert.Equal(t, "/places/search", got.URL.Path)
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get("X-Places-Api-Version"))
	assert.Equal(t, "51.5072,-0.1276", got.URL.Query().Get("ll"))
	assert.Equal(t, "5000", got.URL.Query().Get("radius"))
	assert.Equal(t, "13064,13032", got.URL.Query().Get("fsq_category_ids"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
}

func TestSearch_EmptyResultsIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	places, err := c.Search(context.Background(), SearchRequest{Coordinates: london})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCode  int
		temporary bool
	}{
		{name: "invalid json", status: 200, body: `{"results":[`, wantErr: ErrMalformedResponse},
		{name: "missing results", status: 200, body: `{"places":[]}`, wantErr: ErrMalformedResponse},
		{name: "result without id", status: 200, body: `{"results":[{"name":"x"}]}`, wantErr: ErrMalformedResponse},
		{name: "server error", status: 500, body: `oops`, wantCode: 500, temporary: true},
		{name: "rate limited", status: 429, body: ``, wantCode: 429, temporary: true},
		{name: "bad request", status: 400, body: `{"message":"bad ll"}`, wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Search(context.Background(), SearchRequest{Coordinates: london})
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantCode != 0 {
				var se *StatusError
				require.True(t, errors.As(err, &se), "got %v", err)
				assert.Equal(t, tt.wantCode, se.StatusCode)
			}
			assert.Equal(t, tt.temporary, IsTemporary(err))
		})
	}
}

func TestSearch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "k"
	c, err := New(cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), SearchRequest{Coordinates: london})
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
	assert.True(t, IsTemporary(err))
}

func TestSearch_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "k"
	cfg.RequestsPerSecond = 0
	cfg.Breaker.MinRequests = 2
	cfg.Breaker.FailureRatio = 0.5
	cfg.Breaker.OpenTimeout = time.Minute
	c, err := New(cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), SearchRequest{Coordinates: london})
		require.Error(t, err)
	}

	_, err = c.Search(context.Background(), SearchRequest{Coordinates: london})
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
	assert.Equal(t, 2, calls, "open breaker must not reach the provider")
}

func TestNew_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := DefaultConfig()
	_, err := New(cfg, logger)
	assert.Error(t, err, "missing api key")

	cfg.APIKey = "k"
	cfg.BaseURL = "not a url"
	_, err = New(cfg, logger)
	assert.Error(t, err)
}

// ============================================================
// Match
// ============================================================

func TestMatch(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/places/match", r.URL.Path)
			assert.Equal(t, "Franco Manca", r.URL.Query().Get("name"))
			w.Write([]byte(`{"place":{"fsq_id":"p1","name":"Franco Manca","location":{"formatted_address":"4 Market Row"}}}`))
		})

		p, err := c.Match(context.Background(), MatchRequest{Name: "Franco Manca", Coordinates: london})
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("no place", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		_, err := c.Match(context.Background(), MatchRequest{Name: "Nowhere", Coordinates: london})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("place without location", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"place":{"fsq_id":"p1","name":"Ghost"}}`))
		})

		_, err := c.Match(context.Background(), MatchRequest{Name: "Ghost", Coordinates: london})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("404", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := c.Match(context.Background(), MatchRequest{Name: "x", Coordinates: london})
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}
