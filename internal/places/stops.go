package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/transit"
)

const (
	// DefaultStopsTTL is how long a fetched stop list is reused.
	DefaultStopsTTL = 10 * time.Minute
	stopsKey        = "stops"
)

// stopLister is the interface satisfied by *transit.Client.
type stopLister interface {
	Stops(ctx context.Context) ([]transit.Stop, error)
}

// StopResolver matches names against the transit network's stops. The stop
// list is fetched once per TTL and shared by all callers.
type StopResolver struct {
	stops stopLister
	memo  *gocache.Cache
}

// NewStopResolver constructs a StopResolver with DefaultStopsTTL.
func NewStopResolver(stops stopLister) *StopResolver {
	return NewStopResolverWithTTL(stops, DefaultStopsTTL)
}

// NewStopResolverWithTTL constructs a StopResolver that refetches stops
// after ttl. A non-positive ttl disables reuse.
func NewStopResolverWithTTL(stops stopLister, ttl time.Duration) *StopResolver {
	if ttl <= 0 {
		return &StopResolver{stops: stops}
	}
	return &StopResolver{stops: stops, memo: gocache.New(ttl, 2*ttl)}
}

// Resolve prefers an exact stop name match, then a case-insensitive one.
func (s *StopResolver) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	stops, err := s.list(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("listing stops: %w", err)
	}

	for _, st := range stops {
		if st.Name == name {
			return geo.Coordinate{Lat: st.Lat, Lon: st.Lon}, nil
		}
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, st := range stops {
		if strings.ToLower(st.Name) == want {
			return geo.Coordinate{Lat: st.Lat, Lon: st.Lon}, nil
		}
	}
	return geo.Coordinate{}, fmt.Errorf("%w: no stop named %q", ErrNotFound, name)
}

func (s *StopResolver) list(ctx context.Context) ([]transit.Stop, error) {
	if s.memo != nil {
		if v, ok := s.memo.Get(stopsKey); ok {
			return v.([]transit.Stop), nil
		}
	}

	stops, err := s.stops.Stops(ctx)
	if err != nil {
		return nil, err
	}
	// An empty list usually means the router is still loading its graph.
	if s.memo != nil && len(stops) > 0 {
		s.memo.SetDefault(stopsKey, stops)
	}
	return stops, nil
}
