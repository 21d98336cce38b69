package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/neexbeast/kira-trips/internal/activity"
	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/itinerary"
	"github.com/neexbeast/kira-trips/internal/storage"
	"github.com/neexbeast/kira-trips/internal/transit"
)

// JourneyPlanner plans a single point-to-point journey.
type JourneyPlanner interface {
	PlanJourney(ctx context.Context, start, end geo.PlaceQuery, whenText string) (transit.Journey, error)
}

// ActivityFinder looks up activities and likely destinations.
type ActivityFinder interface {
	Retrieve(ctx context.Context, location, interest string) activity.Result
	BestCity(ctx context.Context, query, fallback string) string
}

// TripComposer builds day trips and multi-day trips.
type TripComposer interface {
	ComposeLoopTrip(ctx context.Context, start, end, interest string, stopCount int) itinerary.Plan
	ComposeMultiDayTrip(ctx context.Context, start, end string, dayCount int) itinerary.Plan
}

// TripRepo defines the storage operations needed by handlers.
type TripRepo interface {
	SaveTrip(ctx context.Context, rec *storage.TripRecord) error
	GetTrip(ctx context.Context, id uuid.UUID) (*storage.TripRecord, error)
	ListTrips(ctx context.Context, limit int) ([]*storage.TripRecord, error)
	FindTripsWithActivity(ctx context.Context, name string, limit int) ([]*storage.TripRecord, error)
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
