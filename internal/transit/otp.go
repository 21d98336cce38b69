package transit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/httpjson"
)

const (
	otpTimeout = 30 * time.Second

	// DefaultOTPURL is the GraphQL endpoint of a local OpenTripPlanner 2.x.
	DefaultOTPURL = "http://localhost:8080/otp/routers/default/index/graphql"
)

const planQuery = `
query PlanTrip(
  $fromLat: Float!, $fromLon: Float!, $toLat: Float!, $toLon: Float!,
  $date: String!, $time: String!, $num: Int!,
  $walkReluctance: Float!, $maxWalkDistance: Float!
) {
  plan(
    from: {lat: $fromLat, lon: $fromLon}
    to: {lat: $toLat, lon: $toLon}
    date: $date
    time: $time
    numItineraries: $num
    transportModes: [{mode: TRANSIT}, {mode: WALK}]
    walkReluctance: $walkReluctance
    maxWalkDistance: $maxWalkDistance
  ) {
    itineraries {
      legs {
        mode
        startTime
        endTime
        duration
        route { shortName longName }
        from { name lat lon }
        to { name lat lon }
        legGeometry { points }
      }
    }
  }
}`

const stopsQuery = `{ stops { name lat lon } }`

// Client talks to an OpenTripPlanner GraphQL endpoint.
type Client struct {
	url    string
	client *http.Client
}

// NewClient constructs a Client for the given GraphQL URL.
func NewClient(otpURL string) (*Client, error) {
	u, err := url.Parse(otpURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid OTP URL %q", otpURL)
	}
	return &Client{url: strings.TrimSuffix(otpURL, "/"), client: httpjson.NewClient(otpTimeout)}, nil
}

// PlanRequest describes one routing query.
type PlanRequest struct {
	From            geo.Coordinate
	To              geo.Coordinate
	Departure       time.Time
	NumItineraries  int
	WalkReluctance  float64
	MaxWalkDistance float64 // meters
}

// Itinerary is one ranked travel option as returned by OTP.
type Itinerary struct {
	Legs []ProviderLeg `json:"legs"`
}

// ProviderLeg is a leg in OTP's wire shape. Times are epoch milliseconds.
type ProviderLeg struct {
	Mode        string    `json:"mode"`
	StartTime   int64     `json:"startTime"`
	EndTime     int64     `json:"endTime"`
	Duration    float64   `json:"duration"`
	Route       *Route    `json:"route"`
	From        Stop      `json:"from"`
	To          Stop      `json:"to"`
	LegGeometry *Geometry `json:"legGeometry"`
}

// Route names the transit line serving a leg.
type Route struct {
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
}

// Geometry holds a leg's encoded polyline.
type Geometry struct {
	Points string `json:"points"`
}

// Stop is a named point in the transit network.
type Stop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type planResponse struct {
	Data struct {
		Plan *struct {
			Itineraries []Itinerary `json:"itineraries"`
		} `json:"plan"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type stopsResponse struct {
	Data struct {
		Stops []Stop `json:"stops"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Plan returns the itineraries OTP proposes, best first. An empty slice
// means OTP found no route.
func (c *Client) Plan(ctx context.Context, req PlanRequest) ([]Itinerary, error) {
	dep := req.Departure
	vars := map[string]any{
		"fromLat":         req.From.Lat,
		"fromLon":         req.From.Lon,
		"toLat":           req.To.Lat,
		"toLon":           req.To.Lon,
		"date":            dep.Format("2006-01-02"),
		"time":            dep.Format(clockLayout),
		"num":             req.NumItineraries,
		"walkReluctance":  req.WalkReluctance,
		"maxWalkDistance": req.MaxWalkDistance,
	}

	var raw planResponse
	if err := httpjson.Post(ctx, c.client, c.url, graphQLRequest{Query: planQuery, Variables: vars}, &raw); err != nil {
		return nil, fmt.Errorf("otp plan: %w", err)
	}
	if err := joinErrors(raw.Errors); err != nil {
		return nil, fmt.Errorf("otp plan: %w", err)
	}
	if raw.Data.Plan == nil {
		return nil, nil
	}
	return raw.Data.Plan.Itineraries, nil
}

// Stops lists every stop known to the router.
func (c *Client) Stops(ctx context.Context) ([]Stop, error) {
	var raw stopsResponse
	if err := httpjson.Post(ctx, c.client, c.url, graphQLRequest{Query: stopsQuery}, &raw); err != nil {
		return nil, fmt.Errorf("otp stops: %w", err)
	}
	if err := joinErrors(raw.Errors); err != nil {
		return nil, fmt.Errorf("otp stops: %w", err)
	}
	return raw.Data.Stops, nil
}

// Ping checks that the GraphQL endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	var raw map[string]any
	if err := httpjson.Post(ctx, c.client, c.url, graphQLRequest{Query: "{ __typename }"}, &raw); err != nil {
		return fmt.Errorf("otp ping: %w", err)
	}
	return nil
}

func joinErrors(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
}
