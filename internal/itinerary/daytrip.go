package itinerary

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neexbeast/kira-trips/internal/activity"
	"github.com/neexbeast/kira-trips/internal/geo"
)

const maxSubQueries = 2

var interestSeparator = regexp.MustCompile(`(?i)\s+(?:and|und)\s+|[&+,]`)

// SplitInterest breaks a combined interest such as "culture and food" into
// at most two independent queries.
func SplitInterest(interest string) []string {
	var out []string
	for _, part := range interestSeparator.Split(interest, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
		if len(out) == maxSubQueries {
			break
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(interest)}
	}
	return out
}

// ComposeLoopTrip plans a day trip from start through up to stopCount
// activities at end and back to start. An empty end is inferred from the
// interest.
func (c *Composer) ComposeLoopTrip(ctx context.Context, start, end, interest string, stopCount int) Plan {
	stopCount = clamp(stopCount, 1, c.cfg.MaxStops)
	end = c.destination(ctx, end, firstNonEmpty(interest, start))
	origin := c.resolveStart(ctx, start)

	stops, center := c.collectStops(ctx, end, SplitInterest(interest), stopCount)

	s := c.newSchedule(origin, at(c.firstDay(), c.cfg.DayStart))

	if len(stops) == 0 {
		s.travel(ctx, geo.PlaceQuery{Name: end, Coord: center}, fmt.Sprintf("Fahrt nach %s", end))
		return Plan{
			Kind:  KindDayTrip,
			Intro: fmt.Sprintf("Keine passenden Stopps für %q in %s gefunden. Hier ist die Verbindung von %s nach %s.", interest, end, start, end),
			Steps: s.steps,
		}
	}

	for _, a := range stops {
		s.visit(ctx, a, "", c.cfg.Dwell)
	}
	s.travel(ctx, origin, fmt.Sprintf("Rückfahrt nach %s", start))

	intro := fmt.Sprintf("Tagesausflug von %s nach %s: %d von %d Stopps gefunden.", start, end, len(stops), stopCount)
	return Plan{Kind: KindDayTrip, Intro: intro, Steps: s.steps}
}

// collectStops retrieves each query at location and interleaves the
// results round-robin so no single query dominates. It also reports the
// location's center when the retriever resolved it.
func (c *Composer) collectStops(ctx context.Context, location string, queries []string, limit int) ([]activity.Activity, *geo.Coordinate) {
	var center *geo.Coordinate
	used := usedNames{}
	pools := make([]*pool, 0, len(queries))
	for _, q := range queries {
		res := c.retriever.Retrieve(ctx, location, q)
		if center == nil {
			center = res.Center
		}
		pools = append(pools, newPool(res.Items, used))
	}

	var stops []activity.Activity
	for len(stops) < limit {
		progressed := false
		for _, p := range pools {
			if len(stops) == limit {
				break
			}
			if a, ok := p.next(); ok {
				stops = append(stops, a)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return stops, center
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
