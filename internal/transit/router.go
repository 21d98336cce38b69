package transit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/neexbeast/kira-trips/internal/geo"
)

const (
	// DefaultWalkReluctance makes OTP prefer any transit option over walking.
	DefaultWalkReluctance = 10.0
	// DefaultMaxWalkDistance keeps poorly connected endpoints reachable on foot.
	DefaultMaxWalkDistance = 5000.0

	numItineraries = 3

	otpOrigin      = "Origin"
	otpDestination = "Destination"
)

// planner is the interface satisfied by Client.
type planner interface {
	Plan(ctx context.Context, req PlanRequest) ([]Itinerary, error)
}

// placeResolver resolves a free-text place name to a coordinate.
type placeResolver interface {
	Resolve(ctx context.Context, name string) (geo.Coordinate, error)
}

// Router plans point-to-point journeys and normalizes them into Legs.
type Router struct {
	planner         planner
	resolver        placeResolver
	log             *slog.Logger
	loc             *time.Location
	now             func() time.Time
	walkReluctance  float64
	maxWalkDistance float64
}

// Option configures a Router.
type Option func(*Router)

// WithLocation sets the time zone leg clock times are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(r *Router) { r.loc = loc }
}

// WithClock overrides the clock used to interpret relative departure phrases.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithWalking overrides the walking preference sent to OTP.
func WithWalking(reluctance, maxDistanceMeters float64) Option {
	return func(r *Router) {
		r.walkReluctance = reluctance
		r.maxWalkDistance = maxDistanceMeters
	}
}

// NewRouter constructs a Router.
func NewRouter(p planner, resolver placeResolver, log *slog.Logger, opts ...Option) *Router {
	r := &Router{
		planner:         p,
		resolver:        resolver,
		log:             log,
		loc:             time.Local,
		now:             time.Now,
		walkReluctance:  DefaultWalkReluctance,
		maxWalkDistance: DefaultMaxWalkDistance,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Location is the time zone the router schedules in.
func (r *Router) Location() *time.Location { return r.loc }

// Now returns the router's current time in its location.
func (r *Router) Now() time.Time { return r.now().In(r.loc) }

// PlanJourney parses whenText and routes from start to end.
func (r *Router) PlanJourney(ctx context.Context, start, end geo.PlaceQuery, whenText string) (Journey, error) {
	departure, err := ParseDeparture(whenText, r.Now())
	if err != nil {
		return Journey{}, err
	}
	return r.Route(ctx, start, end, departure)
}

// Route plans a journey departing at departure. Failures are returned as
// *UnresolvedPlaceError or *NoConnectionError.
func (r *Router) Route(ctx context.Context, start, end geo.PlaceQuery, departure time.Time) (Journey, error) {
	from, err := r.coordinate(ctx, start, "start")
	if err != nil {
		return Journey{}, err
	}
	to, err := r.coordinate(ctx, end, "end")
	if err != nil {
		return Journey{}, err
	}

	itineraries, err := r.planner.Plan(ctx, PlanRequest{
		From:            from,
		To:              to,
		Departure:       departure.In(r.loc),
		NumItineraries:  numItineraries,
		WalkReluctance:  r.walkReluctance,
		MaxWalkDistance: r.maxWalkDistance,
	})
	if err != nil {
		r.log.Warn("routing failed", "from", start.Name, "to", end.Name, "err", err)
		return Journey{}, &NoConnectionError{From: start.Name, To: end.Name, Reason: "routing service unavailable", Err: err}
	}
	if len(itineraries) == 0 || len(itineraries[0].Legs) == 0 {
		return Journey{}, &NoConnectionError{From: start.Name, To: end.Name, Reason: "no itinerary found"}
	}

	return Journey{
		From: start.Name,
		To:   end.Name,
		Legs: r.normalize(itineraries[0], start.Name, end.Name),
	}, nil
}

func (r *Router) coordinate(ctx context.Context, q geo.PlaceQuery, endpoint string) (geo.Coordinate, error) {
	if q.Coord != nil {
		return *q.Coord, nil
	}
	if q.Name == "" || r.resolver == nil {
		return geo.Coordinate{}, &UnresolvedPlaceError{Endpoint: endpoint, Name: q.Name}
	}
	c, err := r.resolver.Resolve(ctx, q.Name)
	if err != nil {
		return geo.Coordinate{}, &UnresolvedPlaceError{Endpoint: endpoint, Name: q.Name, Err: err}
	}
	return c, nil
}

func (r *Router) normalize(it Itinerary, startName, endName string) []Leg {
	legs := make([]Leg, 0, len(it.Legs))
	for _, pl := range it.Legs {
		from := Endpoint{Name: label(pl.From.Name, startName, endName), Location: geo.Coordinate{Lat: pl.From.Lat, Lon: pl.From.Lon}}
		to := Endpoint{Name: label(pl.To.Name, startName, endName), Location: geo.Coordinate{Lat: pl.To.Lat, Lon: pl.To.Lon}}

		mode := ParseMode(pl.Mode)
		leg := NewLeg(mode, from, to,
			time.UnixMilli(pl.StartTime).In(r.loc),
			time.UnixMilli(pl.EndTime).In(r.loc))

		if mode != ModeWalk && pl.Route != nil {
			leg.Line = pl.Route.ShortName
			if leg.Line == "" {
				leg.Line = pl.Route.LongName
			}
		}
		if pl.LegGeometry != nil {
			leg.Geometry = pl.LegGeometry.Points
		}
		legs = append(legs, leg)
	}
	return legs
}

// label swaps OTP's synthetic endpoint names for the caller's names.
func label(name, startName, endName string) string {
	switch name {
	case otpOrigin:
		return startName
	case otpDestination:
		return endName
	}
	return name
}

// IsNoConnection reports whether err means no journey could be produced.
func IsNoConnection(err error) bool {
	var nc *NoConnectionError
	var up *UnresolvedPlaceError
	return errors.As(err, &nc) || errors.As(err, &up) || errors.Is(err, ErrInvalidTime)
}
