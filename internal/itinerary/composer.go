// Package itinerary composes day trips and multi-day trips out of
// activities and transit journeys.
package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neexbeast/kira-trips/internal/activity"
	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/transit"
)

// DefaultCoLocatedKm is the distance under which two places count as the
// same spot and no journey between them is planned.
const DefaultCoLocatedKm = 0.2

// Config holds the scheduling parameters of a Composer. Clock offsets are
// measured from local midnight.
type Config struct {
	DayStart       time.Duration
	AfternoonStart time.Duration
	EveningStart   time.Duration
	Dwell          time.Duration
	MealDwell      time.Duration
	CoLocatedKm    float64
	MaxDays        int
	MaxStops       int
	DefaultCity    string
	Location       *time.Location
	Now            func() time.Time
}

// DefaultConfig returns the production scheduling parameters.
func DefaultConfig() Config {
	return Config{
		DayStart:       9 * time.Hour,
		AfternoonStart: 13*time.Hour + 30*time.Minute,
		EveningStart:   18*time.Hour + 30*time.Minute,
		Dwell:          90 * time.Minute,
		MealDwell:      75 * time.Minute,
		CoLocatedKm:    DefaultCoLocatedKm,
		MaxDays:        14,
		MaxStops:       6,
		DefaultCity:    "Oberstdorf",
		Location:       time.Local,
		Now:            time.Now,
	}
}

// Option adjusts a Composer's Config.
type Option func(*Config)

// WithClock sets the clock trips are scheduled from.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

// WithLocation sets the time zone days are laid out in.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) { c.Location = loc }
}

// WithDefaultCity sets the destination used when none can be inferred.
func WithDefaultCity(city string) Option {
	return func(c *Config) {
		if city != "" {
			c.DefaultCity = city
		}
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

type activityRetriever interface {
	Retrieve(ctx context.Context, location, interest string) activity.Result
	BestCity(ctx context.Context, query, fallback string) string
}

type journeyRouter interface {
	Route(ctx context.Context, start, end geo.PlaceQuery, departure time.Time) (transit.Journey, error)
}

type placeResolver interface {
	Resolve(ctx context.Context, name string) (geo.Coordinate, error)
}

// Composer builds plans. It holds no per-request state and is safe for
// concurrent use.
type Composer struct {
	retriever activityRetriever
	router    journeyRouter
	resolver  placeResolver
	log       *slog.Logger
	cfg       Config
}

// NewComposer constructs a Composer.
func NewComposer(retriever activityRetriever, router journeyRouter, resolver placeResolver, log *slog.Logger, opts ...Option) *Composer {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Composer{retriever: retriever, router: router, resolver: resolver, log: log, cfg: cfg}
}

// Config returns the composer's configuration.
func (c *Composer) Config() Config { return c.cfg }

// resolveStart attaches a coordinate to name when one can be found. An
// unresolved start is passed on by name and reported by the router.
func (c *Composer) resolveStart(ctx context.Context, name string) geo.PlaceQuery {
	coord, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		c.log.Warn("start location unresolved", "city", name, "err", err)
		return geo.PlaceQuery{Name: name}
	}
	return geo.Place(name, coord)
}

// destination picks end, or infers one from hint when end is empty.
func (c *Composer) destination(ctx context.Context, end, hint string) string {
	if end != "" {
		return end
	}
	return c.retriever.BestCity(ctx, hint, c.cfg.DefaultCity)
}

// firstDay is the date the trip starts on: tomorrow.
func (c *Composer) firstDay() time.Time {
	return c.cfg.Now().In(c.cfg.Location).AddDate(0, 0, 1)
}

func at(day time.Time, offset time.Duration) time.Time {
	return transit.AtClock(day, int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

// schedule is the simulated traveller: where they are and what time it is.
type schedule struct {
	c     *Composer
	steps []Step
	here  geo.PlaceQuery
	clock time.Time
}

func (c *Composer) newSchedule(start geo.PlaceQuery, clock time.Time) *schedule {
	return &schedule{c: c, here: start, clock: clock}
}

func (s *schedule) add(step Step) {
	s.steps = append(s.steps, step)
}

// notBefore waits until t if the clock is earlier.
func (s *schedule) notBefore(t time.Time) {
	if s.clock.Before(t) {
		s.clock = t
	}
}

// travel routes from the current place to dest. Co-located hops are
// skipped. A failed route is recorded as an ErrorStep and the traveller is
// assumed to be at dest anyway.
func (s *schedule) travel(ctx context.Context, dest geo.PlaceQuery, label string) {
	defer func() { s.here = dest }()

	if s.c.coLocated(s.here, dest) {
		return
	}

	j, err := s.c.router.Route(ctx, s.here, dest, s.clock)
	if err != nil {
		s.add(ErrorStep{Message: err.Error(), From: s.here.Name, To: dest.Name})
		return
	}

	s.add(TripStep{Label: label, From: s.here.Name, To: dest.Name, Legs: j.Legs})
	if arr := j.Arrives(); arr.After(s.clock) {
		s.clock = arr
	}
}

// visit travels to a and stays for dwell. A trail, when present, is shown
// right before the activity.
func (s *schedule) visit(ctx context.Context, a activity.Activity, slot string, dwell time.Duration) {
	s.travel(ctx, geo.Place(a.Name, a.Location), fmt.Sprintf("Fahrt zu %s", a.Name))

	if a.HasTrail() {
		ep := transit.Endpoint{Name: a.Name, Location: a.Location}
		leg := transit.NewLeg(transit.ModeWalk, ep, ep, s.clock, s.clock)
		leg.Geometry = a.Trail
		s.add(TripStep{Label: fmt.Sprintf("Wegverlauf: %s", a.Name), From: a.Name, To: a.Name, Trail: true, Legs: []transit.Leg{leg}})
	}

	start := s.clock
	s.clock = s.clock.Add(dwell)
	s.add(ActivityStep{
		Slot:     slot,
		Activity: a,
		Start:    start.Format("15:04"),
		End:      s.clock.Format("15:04"),
	})
}

// coLocated reports whether a and b are effectively the same spot. Without
// coordinates only identical names count.
func (c *Composer) coLocated(a, b geo.PlaceQuery) bool {
	if a.Coord != nil && b.Coord != nil {
		return geo.DistanceKm(*a.Coord, *b.Coord) < c.cfg.CoLocatedKm
	}
	return a.Name != "" && strings.EqualFold(a.Name, b.Name)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
