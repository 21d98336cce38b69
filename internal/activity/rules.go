package activity

import "strings"

const (
	CategoryMuseum     = "Museum"
	CategoryRestaurant = "Restaurant"
	CategoryLodging    = "Lodging"
	CategoryOutdoor    = "Outdoor"
	CategoryLeisure    = "Leisure"
)

// Rule decides how an interest is searched and how far from the center its
// results may lie.
type Rule struct {
	Label    string
	RadiusKm float64
	// Prefix replaces the interest in the query. Empty keeps the interest.
	Prefix   string
	keywords []string
}

// Query builds the search text for interest at location.
func (r Rule) Query(interest, location string) string {
	head := r.Prefix
	if head == "" {
		head = strings.TrimSpace(interest)
	}
	return strings.TrimSpace(head + " " + strings.TrimSpace(location))
}

// rules are matched in order; the first keyword hit wins.
var rules = []Rule{
	{
		Label: CategoryLodging, RadiusKm: 2, Prefix: "Hotel",
		keywords: []string{"hotel", "lodging", "accommodation", "unterkunft", "übernachtung", "pension", "hostel", "gasthof", "ferienwohnung"},
	},
	{
		Label: CategoryMuseum, RadiusKm: 3, Prefix: "Museum",
		keywords: []string{"museum", "museen", "kultur", "culture", "galerie", "gallery", "ausstellung", "exhibition", "kunst"},
	},
	{
		Label: CategoryRestaurant, RadiusKm: 3, Prefix: "Restaurant",
		keywords: []string{"restaurant", "food", "essen", "dinner", "lunch", "meal", "café", "cafe", "gasthaus", "biergarten", "imbiss"},
	},
	{
		Label: CategoryOutdoor, RadiusKm: 15,
		keywords: []string{"hiking", "hike", "wander", "trail", "outdoor", "natur", "berg", "mountain", "klettern", "climb", "bike", "fahrrad"},
	},
}

var leisure = Rule{Label: CategoryLeisure, RadiusKm: 15}

// Classify picks the first rule with a keyword contained in interest.
func Classify(interest string) Rule {
	s := strings.ToLower(interest)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(s, kw) {
				return r
			}
		}
	}
	return leisure
}
