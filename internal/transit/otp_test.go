package transit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/transit"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func otpServer(t *testing.T, respond func(req gqlRequest) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respond(req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := transit.NewClient("not a url")
	require.Error(t, err)

	_, err = transit.NewClient("")
	require.Error(t, err)
}

func TestPlan_SendsVariablesAndParsesLegs(t *testing.T) {
	srv := otpServer(t, func(req gqlRequest) any {
		assert.Contains(t, req.Query, "legGeometry")
		assert.Equal(t, 47.5, req.Variables["fromLat"])
		assert.Equal(t, 10.27, req.Variables["toLon"])
		assert.Equal(t, "2026-10-20", req.Variables["date"])
		assert.Equal(t, "07:30", req.Variables["time"])
		assert.Equal(t, float64(10), req.Variables["walkReluctance"])
		assert.Equal(t, float64(5000), req.Variables["maxWalkDistance"])
		assert.Equal(t, float64(3), req.Variables["num"])
		return map[string]any{
			"data": map[string]any{
				"plan": map[string]any{
					"itineraries": []any{
						map[string]any{"legs": []any{
							map[string]any{
								"mode":        "BUS",
								"startTime":   1000,
								"endTime":     61000,
								"duration":    60,
								"route":       map[string]any{"shortName": "45"},
								"from":        map[string]any{"name": "Origin", "lat": 47.5, "lon": 10.2},
								"to":          map[string]any{"name": "Oberstdorf Bf", "lat": 47.4, "lon": 10.27},
								"legGeometry": map[string]any{"points": "abc"},
							},
						}},
					},
				},
			},
		}
	})

	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)

	its, err := c.Plan(context.Background(), transit.PlanRequest{
		From:            geo.Coordinate{Lat: 47.5, Lon: 10.2},
		To:              geo.Coordinate{Lat: 47.4, Lon: 10.27},
		Departure:       time.Date(2026, 10, 20, 7, 30, 0, 0, time.UTC),
		NumItineraries:  3,
		WalkReluctance:  10,
		MaxWalkDistance: 5000,
	})
	require.NoError(t, err)
	require.Len(t, its, 1)
	require.Len(t, its[0].Legs, 1)

	leg := its[0].Legs[0]
	assert.Equal(t, "BUS", leg.Mode)
	assert.Equal(t, "45", leg.Route.ShortName)
	assert.Equal(t, "Origin", leg.From.Name)
	assert.Equal(t, "abc", leg.LegGeometry.Points)
}

func TestPlan_NoPlanIsEmpty(t *testing.T) {
	srv := otpServer(t, func(gqlRequest) any {
		return map[string]any{"data": map[string]any{"plan": nil}}
	})
	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)

	its, err := c.Plan(context.Background(), transit.PlanRequest{Departure: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, its)
}

func TestPlan_GraphQLErrors(t *testing.T) {
	srv := otpServer(t, func(gqlRequest) any {
		return map[string]any{"errors": []any{
			map[string]any{"message": "bad date"},
			map[string]any{"message": "bad time"},
		}}
	})
	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Plan(context.Background(), transit.PlanRequest{Departure: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date; bad time")
}

func TestStops(t *testing.T) {
	srv := otpServer(t, func(req gqlRequest) any {
		assert.True(t, strings.Contains(req.Query, "stops"))
		return map[string]any{"data": map[string]any{"stops": []any{
			map[string]any{"name": "Fischen Bf", "lat": 47.46, "lon": 10.27},
		}}}
	})
	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)

	stops, err := c.Stops(context.Background())
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "Fischen Bf", stops[0].Name)
	assert.Equal(t, 47.46, stops[0].Lat)
}

func TestPing(t *testing.T) {
	srv := otpServer(t, func(gqlRequest) any {
		return map[string]any{"data": map[string]any{"__typename": "QueryType"}}
	})
	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := transit.NewClient(srv.URL)
	require.NoError(t, err)
	require.Error(t, c.Ping(context.Background()))
}
