package itinerary

import (
	"context"
	"fmt"

	"github.com/neexbeast/kira-trips/internal/geo"
)

// Pool queries of a multi-day trip.
const (
	CultureInterest = "Museum"
	FoodInterest    = "Restaurant"
	LeisureInterest = "Hiking"
	LodgingInterest = "Hotel"
)

const (
	slotMorning   = "Vormittag"
	slotAfternoon = "Nachmittag"
	slotEvening   = "Abendessen"
	slotFarewell  = "Abschluss"
)

type dayPools struct {
	culture *pool
	food    *pool
	leisure *pool
}

// ComposeMultiDayTrip plans dayCount days at end with start as home. Days
// begin and end at a base: the first lodging near end, or end's center.
func (c *Composer) ComposeMultiDayTrip(ctx context.Context, start, end string, dayCount int) Plan {
	days := clamp(dayCount, 1, c.cfg.MaxDays)
	end = c.destination(ctx, end, start)
	home := c.resolveStart(ctx, start)

	base, baseNote := c.findBase(ctx, end)

	used := usedNames{}
	pools := dayPools{
		culture: newPool(c.retriever.Retrieve(ctx, end, CultureInterest).Items, used),
		food:    newPool(c.retriever.Retrieve(ctx, end, FoodInterest).Items, used),
		leisure: newPool(c.retriever.Retrieve(ctx, end, LeisureInterest).Items, used),
	}

	first := c.firstDay()
	var s *schedule
	for d := 1; d <= days; d++ {
		date := first.AddDate(0, 0, d-1)
		switch {
		case d == 1:
			s = c.newSchedule(home, at(date, c.cfg.DayStart))
			c.arrivalDay(ctx, s, pools, start, end, home, base, baseNote, days == 1)
		case d == days:
			s.here, s.clock = base, at(date, c.cfg.DayStart)
			c.departureDay(ctx, s, pools, d, start, end, home)
		default:
			s.here, s.clock = base, at(date, c.cfg.DayStart)
			c.middleDay(ctx, s, pools, d, end, base)
		}
	}

	unit := "Tage"
	if days == 1 {
		unit = "Tag"
	}
	return Plan{
		Kind:  KindMultiDay,
		Intro: fmt.Sprintf("%d %s in %s, Anreise von %s.", days, unit, end, start),
		Steps: s.steps,
	}
}

// findBase returns the trip's base and a note for the first day header.
func (c *Composer) findBase(ctx context.Context, end string) (geo.PlaceQuery, string) {
	res := c.retriever.Retrieve(ctx, end, LodgingInterest)
	if len(res.Items) > 0 {
		lodging := res.Items[0]
		return geo.Place(lodging.Name, lodging.Location), fmt.Sprintf("Unterkunft: %s", lodging.Name)
	}
	note := fmt.Sprintf("Keine Unterkunft in der Nähe gefunden, Ausgangspunkt ist das Zentrum von %s.", end)
	return geo.PlaceQuery{Name: end, Coord: res.Center}, note
}

func (c *Composer) arrivalDay(ctx context.Context, s *schedule, p dayPools, start, end string, home, base geo.PlaceQuery, note string, only bool) {
	title := fmt.Sprintf("Tag 1: Anreise %s → %s", start, end)
	if only {
		title = fmt.Sprintf("Tag 1: %s → %s → %s", start, end, start)
	}
	s.add(HeaderStep{Day: 1, Title: title, Note: note})
	s.travel(ctx, base, fmt.Sprintf("Anreise nach %s", end))

	c.afternoonAndEvening(ctx, s, p.culture, p.food)

	if only {
		s.travel(ctx, home, fmt.Sprintf("Heimreise nach %s", start))
		return
	}
	s.travel(ctx, base, "Zurück zur Unterkunft")
}

func (c *Composer) middleDay(ctx context.Context, s *schedule, p dayPools, day int, end string, base geo.PlaceQuery) {
	s.add(HeaderStep{Day: day, Title: fmt.Sprintf("Tag %d: Aktivitäten in %s", day, end)})

	if a, ok := p.culture.next(); ok {
		s.visit(ctx, a, slotMorning, c.cfg.Dwell)
	}
	c.afternoonAndEvening(ctx, s, p.leisure, p.food)
	s.travel(ctx, base, "Zurück zur Unterkunft")
}

func (c *Composer) departureDay(ctx context.Context, s *schedule, p dayPools, day int, start, end string, home geo.PlaceQuery) {
	s.add(HeaderStep{Day: day, Title: fmt.Sprintf("Tag %d: Abreise %s → %s", day, end, start)})

	a, ok := p.leisure.next()
	if !ok {
		a, ok = p.culture.next()
	}
	if ok {
		s.visit(ctx, a, slotFarewell, c.cfg.Dwell)
	}
	s.travel(ctx, home, fmt.Sprintf("Heimreise nach %s", start))
}

func (c *Composer) afternoonAndEvening(ctx context.Context, s *schedule, afternoon, evening *pool) {
	day := s.clock
	if a, ok := afternoon.next(); ok {
		s.notBefore(at(day, c.cfg.AfternoonStart))
		s.visit(ctx, a, slotAfternoon, c.cfg.Dwell)
	}
	if a, ok := evening.next(); ok {
		s.notBefore(at(day, c.cfg.EveningStart))
		s.visit(ctx, a, slotEvening, c.cfg.MealDwell)
	}
}
