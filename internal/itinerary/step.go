package itinerary

import (
	"encoding/json"
	"fmt"

	"github.com/neexbeast/kira-trips/internal/activity"
	"github.com/neexbeast/kira-trips/internal/transit"
)

// Step is one entry of a composed plan. It is one of HeaderStep, TripStep,
// ActivityStep or ErrorStep.
type Step interface {
	step()
}

// HeaderStep opens a day.
type HeaderStep struct {
	Day   int
	Title string
	Note  string
}

// TripStep is a journey between two places. A trail step holds a single
// walking leg that starts and ends at the activity it illustrates.
type TripStep struct {
	Label string
	From  string
	To    string
	Trail bool
	Legs  []transit.Leg
}

// ActivityStep is a scheduled visit.
type ActivityStep struct {
	Slot     string
	Activity activity.Activity
	Start    string
	End      string
}

// ErrorStep marks a transition that could not be planned.
type ErrorStep struct {
	Message string
	From    string
	To      string
}

func (HeaderStep) step()   {}
func (TripStep) step()     {}
func (ActivityStep) step() {}
func (ErrorStep) step()    {}

const (
	stepHeader   = "header"
	stepTrip     = "trip"
	stepActivity = "activity"
	stepError    = "error"
)

type headerJSON struct {
	Type  string `json:"type"`
	Day   int    `json:"day"`
	Title string `json:"title"`
	Note  string `json:"note,omitempty"`
}

type tripJSON struct {
	Type  string        `json:"type"`
	Label string        `json:"label"`
	From  string        `json:"from"`
	To    string        `json:"to"`
	Trail bool          `json:"trail,omitempty"`
	Legs  []transit.Leg `json:"legs"`
}

type activityJSON struct {
	Type     string            `json:"type"`
	Slot     string            `json:"slot,omitempty"`
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Activity activity.Activity `json:"activity"`
}

type errorJSON struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

func encodeStep(s Step) (any, error) {
	switch v := s.(type) {
	case HeaderStep:
		return headerJSON{Type: stepHeader, Day: v.Day, Title: v.Title, Note: v.Note}, nil
	case TripStep:
		legs := v.Legs
		if legs == nil {
			legs = []transit.Leg{}
		}
		return tripJSON{Type: stepTrip, Label: v.Label, From: v.From, To: v.To, Trail: v.Trail, Legs: legs}, nil
	case ActivityStep:
		return activityJSON{Type: stepActivity, Slot: v.Slot, Start: v.Start, End: v.End, Activity: v.Activity}, nil
	case ErrorStep:
		return errorJSON{Type: stepError, Message: v.Message, From: v.From, To: v.To}, nil
	default:
		return nil, fmt.Errorf("unknown step type %T", s)
	}
}

// Plan is the result of a composition.
type Plan struct {
	Kind  string
	Intro string
	Steps []Step
}

const (
	KindDayTrip  = "day_trip"
	KindMultiDay = "multi_day"

	planType = "multi_step_plan"
)

// MarshalJSON encodes the plan with a type discriminator on every step.
func (p Plan) MarshalJSON() ([]byte, error) {
	steps := make([]any, 0, len(p.Steps))
	for i, s := range p.Steps {
		enc, err := encodeStep(s)
		if err != nil {
			return nil, fmt.Errorf("encoding step %d: %w", i, err)
		}
		steps = append(steps, enc)
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Kind  string `json:"kind"`
		Intro string `json:"intro"`
		Steps []any  `json:"steps"`
	}{planType, p.Kind, p.Intro, steps})
}
