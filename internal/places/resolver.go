// Package places resolves free-text place names to coordinates.
package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neexbeast/kira-trips/internal/cache"
	"github.com/neexbeast/kira-trips/internal/geo"
)

// ErrNotFound is returned when no resolver knows the place.
var ErrNotFound = errors.New("place not found")

// Resolver resolves a place name to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, name string) (geo.Coordinate, error)
}

// Chain tries each resolver in order and returns the first hit.
type Chain struct {
	resolvers []Resolver
	log       *slog.Logger
}

// NewChain constructs a Chain. Nil resolvers are ignored.
func NewChain(log *slog.Logger, resolvers ...Resolver) *Chain {
	c := &Chain{log: log}
	for _, r := range resolvers {
		if r != nil {
			c.resolvers = append(c.resolvers, r)
		}
	}
	return c
}

// Resolve returns the first successful resolution. Transport errors are
// logged and the next resolver is tried.
func (c *Chain) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	for _, r := range c.resolvers {
		coord, err := r.Resolve(ctx, name)
		if err == nil {
			return coord, nil
		}
		if ctx.Err() != nil {
			return geo.Coordinate{}, ctx.Err()
		}
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("place resolver failed", "place", name, "err", err)
		}
	}
	return geo.Coordinate{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// coordinateCache is the interface satisfied by *cache.Cache.
type coordinateCache interface {
	Get(ctx context.Context, name string) (*geo.Coordinate, error)
	Set(ctx context.Context, name string, coord *geo.Coordinate) error
}

var _ coordinateCache = (*cache.Cache)(nil)

// Cached memoizes another resolver's hits. Misses are not cached.
type Cached struct {
	next  Resolver
	cache coordinateCache
	log   *slog.Logger
}

// NewCached wraps next with a coordinate cache.
func NewCached(next Resolver, c coordinateCache, log *slog.Logger) *Cached {
	return &Cached{next: next, cache: c, log: log}
}

// Resolve checks the cache first. Cache failures are logged and ignored.
func (c *Cached) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	hit, err := c.cache.Get(ctx, name)
	if err != nil {
		c.log.Warn("place cache read failed", "place", name, "err", err)
	}
	if hit != nil {
		return *hit, nil
	}

	coord, err := c.next.Resolve(ctx, name)
	if err != nil {
		return geo.Coordinate{}, err
	}

	if err := c.cache.Set(ctx, name, &coord); err != nil {
		c.log.Warn("place cache write failed", "place", name, "err", err)
	}
	return coord, nil
}
