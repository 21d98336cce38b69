package transit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neexbeast/kira-trips/internal/geo"
)

// Mode is a leg's transport mode as reported by the router.
type Mode string

const (
	ModeWalk   Mode = "WALK"
	ModeBus    Mode = "BUS"
	ModeRail   Mode = "RAIL"
	ModeTram   Mode = "TRAM"
	ModeSubway Mode = "SUBWAY"
	ModeTrain  Mode = "TRAIN"
)

// ParseMode normalizes a provider mode string. Unknown modes pass through upper-cased.
func ParseMode(s string) Mode {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "FOOT" {
		return ModeWalk
	}
	return Mode(s)
}

// IsTransit reports whether m is a motorized public transport mode.
func (m Mode) IsTransit() bool {
	return m != ModeWalk && m != "BICYCLE" && m != "CAR"
}

// Endpoint is one end of a leg.
type Endpoint struct {
	Name     string         `json:"name"`
	Location geo.Coordinate `json:"location"`
}

// Leg is one continuous segment of travel by a single mode.
type Leg struct {
	Mode        Mode     `json:"mode"`
	From        Endpoint `json:"from"`
	To          Endpoint `json:"to"`
	Departure   string   `json:"departure"`
	Arrival     string   `json:"arrival"`
	Line        string   `json:"line,omitempty"`
	DurationMin int      `json:"duration_min"`
	Geometry    string   `json:"geometry,omitempty"`

	DepartAt time.Time `json:"-"`
	ArriveAt time.Time `json:"-"`
}

// NewLeg builds a Leg whose clock strings and duration derive from departAt
// and arriveAt. An arrival before the departure is clamped to the departure.
func NewLeg(mode Mode, from, to Endpoint, departAt, arriveAt time.Time) Leg {
	if arriveAt.Before(departAt) {
		arriveAt = departAt
	}
	return Leg{
		Mode:        mode,
		From:        from,
		To:          to,
		Departure:   departAt.Format(clockLayout),
		Arrival:     arriveAt.Format(clockLayout),
		DurationMin: int(arriveAt.Sub(departAt).Minutes()),
		DepartAt:    departAt,
		ArriveAt:    arriveAt,
	}
}

// Journey is the normalized top-ranked itinerary between two named places.
type Journey struct {
	From string `json:"from"`
	To   string `json:"to"`
	Legs []Leg  `json:"legs"`
}

// Departs returns the departure time of the first leg.
func (j Journey) Departs() time.Time {
	if len(j.Legs) == 0 {
		return time.Time{}
	}
	return j.Legs[0].DepartAt
}

// Arrives returns the arrival time of the last leg.
func (j Journey) Arrives() time.Time {
	if len(j.Legs) == 0 {
		return time.Time{}
	}
	return j.Legs[len(j.Legs)-1].ArriveAt
}

// DurationMin is the door-to-door duration in minutes.
func (j Journey) DurationMin() int {
	if len(j.Legs) == 0 {
		return 0
	}
	return int(j.Arrives().Sub(j.Departs()).Minutes())
}

// ErrInvalidTime is returned when a departure phrase cannot be parsed.
var ErrInvalidTime = errors.New("invalid departure time")

// UnresolvedPlaceError reports that one endpoint of a journey has no coordinate.
type UnresolvedPlaceError struct {
	Endpoint string // "start" or "end"
	Name     string
	Err      error
}

func (e *UnresolvedPlaceError) Error() string {
	return fmt.Sprintf("could not resolve %s location %q", e.Endpoint, e.Name)
}

func (e *UnresolvedPlaceError) Unwrap() error { return e.Err }

// NoConnectionError reports that no itinerary could be produced between two places.
type NoConnectionError struct {
	From   string
	To     string
	Reason string
	Err    error
}

func (e *NoConnectionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no connection from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("no connection from %s to %s: %s", e.From, e.To, e.Reason)
}

func (e *NoConnectionError) Unwrap() error { return e.Err }
