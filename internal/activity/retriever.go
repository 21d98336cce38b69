// Package activity retrieves points of interest near a place.
package activity

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/search"
)

const (
	// MaxResults caps a single retrieval.
	MaxResults = 5

	searchSize     = 30
	previewRunes   = 240
	bestCitySample = 30
)

// Activity is a point of interest ready to be scheduled.
type Activity struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	City        string         `json:"city,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    geo.Coordinate `json:"location"`
	DistanceKm  float64        `json:"distance_km"`
	Trail       string         `json:"trail,omitempty"`
	Source      string         `json:"source,omitempty"`
}

// HasTrail reports whether the activity carries trail geometry.
func (a Activity) HasTrail() bool { return a.Trail != "" }

// Result is the outcome of one retrieval. Center is nil when the location
// could not be resolved.
type Result struct {
	Location string          `json:"location"`
	Interest string          `json:"interest"`
	Center   *geo.Coordinate `json:"center,omitempty"`
	Items    []Activity      `json:"items"`
}

// Searcher is the interface satisfied by *search.Client.
type Searcher interface {
	Search(ctx context.Context, query string, size int) ([]search.Document, error)
}

// placeResolver is satisfied by every places.Resolver.
type placeResolver interface {
	Resolve(ctx context.Context, name string) (geo.Coordinate, error)
}

// Retriever turns (location, interest) into a short list of nearby activities.
type Retriever struct {
	search   Searcher
	resolver placeResolver
	log      *slog.Logger
}

// NewRetriever constructs a Retriever.
func NewRetriever(s Searcher, resolver placeResolver, log *slog.Logger) *Retriever {
	return &Retriever{search: s, resolver: resolver, log: log}
}

// Retrieve returns up to MaxResults distinct activities matching interest
// within the interest's radius of location. Failures yield an empty list.
func (r *Retriever) Retrieve(ctx context.Context, location, interest string) Result {
	res := Result{Location: location, Interest: interest, Items: []Activity{}}

	center, err := r.resolver.Resolve(ctx, location)
	if err != nil {
		r.log.Warn("activity center unresolved", "city", location, "err", err)
		return res
	}
	res.Center = &center

	rule := Classify(interest)
	docs, err := r.search.Search(ctx, rule.Query(interest, location), searchSize)
	if err != nil {
		r.log.Warn("activity search failed", "city", location, "interest", interest, "err", err)
		return res
	}

	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if len(res.Items) == MaxResults {
			break
		}
		if d.Name == "" {
			continue
		}
		coord, ok := geo.ExtractCoordinate(d.Metadata)
		if !ok {
			continue
		}
		dist := geo.DistanceKm(center, coord)
		if dist > rule.RadiusKm {
			continue
		}
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}

		a := Activity{
			Name:        d.Name,
			Category:    displayCategory(d, rule),
			City:        d.City,
			Description: preview(d.Text),
			Location:    coord,
			DistanceKm:  dist,
			Source:      d.Index,
		}
		if trail, ok := geo.ExtractTrailGeometry(d.Metadata); ok {
			a.Trail = trail
		}
		res.Items = append(res.Items, a)
	}

	return res
}

// BestCity picks the city most hits for query belong to. Without any city
// in the hits it falls back to the first comma-separated part of query,
// and to fallback for an empty query.
func (r *Retriever) BestCity(ctx context.Context, query, fallback string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return fallback
	}

	docs, err := r.search.Search(ctx, query, bestCitySample)
	if err != nil {
		r.log.Warn("best city search failed", "query", query, "err", err)
	}

	cities := lo.FilterMap(docs, func(d search.Document, _ int) (string, bool) {
		return d.City, d.City != ""
	})
	if len(cities) > 0 {
		counts := lo.CountValues(cities)
		// MaxBy keeps the first of equal maxima, so ties go to the earliest hit.
		return lo.MaxBy(lo.Uniq(cities), func(a, b string) bool { return counts[a] > counts[b] })
	}

	if head := strings.TrimSpace(strings.Split(query, ",")[0]); head != "" {
		return head
	}
	return fallback
}

// displayCategory prefers the index's category. A name mentioning a museum
// is always labelled Museum; this is a naming heuristic, not a classification.
func displayCategory(d search.Document, rule Rule) string {
	if strings.Contains(strings.ToLower(d.Name), "museum") {
		return CategoryMuseum
	}
	if d.Category != "" {
		return d.Category
	}
	return rule.Label
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:previewRunes])) + "…"
}
