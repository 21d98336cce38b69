package places_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/neexbeast/kira-trips/internal/cache"
	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/places"
	"github.com/neexbeast/kira-trips/internal/transit"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockResolver struct {
	ResolveFn func(ctx context.Context, name string) (geo.Coordinate, error)
	calls     int
}

func (m *mockResolver) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	m.calls++
	return m.ResolveFn(ctx, name)
}

type mockStops struct {
	StopsFn func(ctx context.Context) ([]transit.Stop, error)
}

func (m *mockStops) Stops(ctx context.Context) ([]transit.Stop, error) {
	return m.StopsFn(ctx)
}

func TestNominatim_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Oberstdorf", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "kira-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"lat": "47.4097", "lon": "10.2790", "display_name": "Oberstdorf, Bayern"},
		})
	}))
	defer srv.Close()

	c, err := places.NewNominatimClientWithURL(srv.URL, "kira-test", rate.Inf)
	require.NoError(t, err)

	coord, err := c.Resolve(context.Background(), "Oberstdorf")
	require.NoError(t, err)
	assert.InDelta(t, 47.4097, coord.Lat, 1e-9)
	assert.InDelta(t, 10.2790, coord.Lon, 1e-9)
}

func TestNominatim_NoHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := places.NewNominatimClientWithURL(srv.URL, "", rate.Inf)
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, places.ErrNotFound)

	_, err = c.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, places.ErrNotFound)
}

func TestNominatim_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := places.NewNominatimClientWithURL(srv.URL, "", rate.Inf)
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "Oberstdorf")
	require.Error(t, err)
	assert.False(t, errors.Is(err, places.ErrNotFound))
}

func TestNominatim_InvalidURL(t *testing.T) {
	_, err := places.NewNominatimClientWithURL("::", "", rate.Inf)
	require.Error(t, err)
}

func TestStopResolver(t *testing.T) {
	stops := &mockStops{StopsFn: func(context.Context) ([]transit.Stop, error) {
		return []transit.Stop{
			{Name: "fischen", Lat: 1, Lon: 1},
			{Name: "Fischen", Lat: 2, Lon: 2},
			{Name: "Oberstdorf Bahnhof", Lat: 3, Lon: 3},
		}, nil
	}}
	r := places.NewStopResolver(stops)

	c, err := r.Resolve(context.Background(), "Fischen")
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Lat, "exact match wins over case-insensitive")

	c, err = r.Resolve(context.Background(), "oberstdorf bahnhof")
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Lat)

	_, err = r.Resolve(context.Background(), "Sonthofen")
	assert.ErrorIs(t, err, places.ErrNotFound)
}

func TestStopResolver_ListError(t *testing.T) {
	r := places.NewStopResolver(&mockStops{StopsFn: func(context.Context) ([]transit.Stop, error) {
		return nil, errors.New("otp down")
	}})
	_, err := r.Resolve(context.Background(), "Fischen")
	require.Error(t, err)
	assert.False(t, errors.Is(err, places.ErrNotFound))
}

func TestStopResolver_ReusesStopList(t *testing.T) {
	calls := 0
	r := places.NewStopResolver(&mockStops{StopsFn: func(context.Context) ([]transit.Stop, error) {
		calls++
		return []transit.Stop{{Name: "Sonthofen Bf", Lat: 47.51, Lon: 10.28}}, nil
	}})

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "Sonthofen Bf")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestStopResolver_EmptyListIsRefetched(t *testing.T) {
	calls := 0
	r := places.NewStopResolver(&mockStops{StopsFn: func(context.Context) ([]transit.Stop, error) {
		calls++
		return nil, nil
	}})

	_, err := r.Resolve(context.Background(), "Fischen")
	assert.ErrorIs(t, err, places.ErrNotFound)
	_, err = r.Resolve(context.Background(), "Fischen")
	assert.ErrorIs(t, err, places.ErrNotFound)
	assert.Equal(t, 2, calls)
}

func TestChain_FallsThrough(t *testing.T) {
	first := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{}, errors.New("timeout")
	}}
	second := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{}, places.ErrNotFound
	}}
	third := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{Lat: 47, Lon: 10}, nil
	}}

	c := places.NewChain(discard(), first, nil, second, third)
	coord, err := c.Resolve(context.Background(), "Fischen")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 47, Lon: 10}, coord)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChain_AllMiss(t *testing.T) {
	miss := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{}, errors.New("boom")
	}}
	_, err := places.NewChain(discard(), miss).Resolve(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, places.ErrNotFound)
}

func TestCached_StoresHits(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	next := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{Lat: 47.4, Lon: 10.2}, nil
	}}
	r := places.NewCached(next, cache.NewCache(rc), discard())

	for i := 0; i < 3; i++ {
		c, err := r.Resolve(context.Background(), "Oberstdorf")
		require.NoError(t, err)
		assert.Equal(t, 47.4, c.Lat)
	}
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists("place:oberstdorf"))
}

func TestCached_MissIsNotStored(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	next := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{}, places.ErrNotFound
	}}
	r := places.NewCached(next, cache.NewCache(rc), discard())

	_, err := r.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, places.ErrNotFound)
	assert.False(t, mr.Exists("place:atlantis"))
}

func TestCached_RedisDownStillResolves(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	mr.Close()

	next := &mockResolver{ResolveFn: func(context.Context, string) (geo.Coordinate, error) {
		return geo.Coordinate{Lat: 1, Lon: 2}, nil
	}}
	c, err := places.NewCached(next, cache.NewCache(rc), discard()).Resolve(context.Background(), "Fischen")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 1, Lon: 2}, c)
}
