package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/neexbeast/kira-trips/internal/geo"
)

var (
	fischen    = geo.Coordinate{Lat: 47.4597, Lon: 10.2717}
	oberstdorf = geo.Coordinate{Lat: 47.4097, Lon: 10.2792}
	kempten    = geo.Coordinate{Lat: 47.7267, Lon: 10.3139}
)

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]geo.Coordinate{
		{fischen, oberstdorf},
		{oberstdorf, kempten},
		{{Lat: -33.45, Lon: -70.66}, {Lat: 51.5, Lon: -0.12}},
	}
	for _, p := range pairs {
		assert.InDelta(t, geo.DistanceKm(p[0], p[1]), geo.DistanceKm(p[1], p[0]), 1e-9)
	}
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, geo.DistanceKm(kempten, kempten))
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Fischen to Oberstdorf is roughly 5.6 km as the crow flies.
	d := geo.DistanceKm(fischen, oberstdorf)
	assert.InDelta(t, 5.6, d, 0.3)
}

func TestExtractCoordinate_ExplicitFields(t *testing.T) {
	c, ok := geo.ExtractCoordinate(map[string]any{"lat": 47.5, "lon": 10.2})
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.5, Lon: 10.2}, c)

	c, ok = geo.ExtractCoordinate(map[string]any{"latitude": "47.5", "longitude": "10.25"})
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.5, Lon: 10.25}, c)
}

func TestExtractCoordinate_CombinedString(t *testing.T) {
	c, ok := geo.ExtractCoordinate(map[string]any{"geo": "47.728, 10.311"})
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.728, Lon: 10.311}, c)
}

func TestExtractCoordinate_NestedLocation(t *testing.T) {
	meta := map[string]any{
		"name": "Allgäu Museum",
		"location": map[string]any{
			"name":      "Museum Entry",
			"latitude":  47.728,
			"longitude": 10.311,
		},
	}
	c, ok := geo.ExtractCoordinate(meta)
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.728, Lon: 10.311}, c)
}

func TestExtractCoordinate_NestedGeoString(t *testing.T) {
	meta := map[string]any{"location": map[string]any{"geo": "47.1,10.9"}}
	c, ok := geo.ExtractCoordinate(meta)
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.1, Lon: 10.9}, c)
}

func TestExtractCoordinate_GeoJSONPoint(t *testing.T) {
	meta := map[string]any{
		"geometry": map[string]any{"type": "Point", "coordinates": []any{10.31, 47.72}},
	}
	c, ok := geo.ExtractCoordinate(meta)
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 47.72, Lon: 10.31}, c)
}

func TestExtractCoordinate_ExplicitWinsOverNested(t *testing.T) {
	meta := map[string]any{
		"lat":      1.0,
		"lon":      2.0,
		"location": map[string]any{"lat": 3.0, "lon": 4.0},
	}
	c, ok := geo.ExtractCoordinate(meta)
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 1, Lon: 2}, c)
}

func TestExtractCoordinate_Malformed(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"lat": "north", "lon": 10.0},
		{"lat": 47.0},
		{"geo": "47.0"},
		{"geo": "a,b"},
		{"location": 12},
		{"location": map[string]any{"lat": nil, "lon": nil}},
		{"lat": "", "lon": ""},
	}
	for _, meta := range cases {
		_, ok := geo.ExtractCoordinate(meta)
		assert.False(t, ok, "meta %v", meta)
	}
}

func TestEncodePolyline_Empty(t *testing.T) {
	assert.Equal(t, "", geo.EncodePolyline(nil))
	assert.Equal(t, "", geo.EncodePolyline([]geo.Coordinate{}))
}

func TestEncodePolyline_ReferenceVector(t *testing.T) {
	points := []geo.Coordinate{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", geo.EncodePolyline(points))
}

func TestEncodePolyline_SinglePointRoundTrip(t *testing.T) {
	p := geo.Coordinate{Lat: 47.409712, Lon: 10.279231}
	encoded := geo.EncodePolyline([]geo.Coordinate{p})

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, coords, 1)
	assert.InDelta(t, p.Lat, coords[0][0], 1e-5)
	assert.InDelta(t, p.Lon, coords[0][1], 1e-5)
}

func TestExtractTrailGeometry_LineString(t *testing.T) {
	meta := map[string]any{
		"route_geometry": map[string]any{
			"type": "LineString",
			"coordinates": []any{
				[]any{10.27, 47.40, 812.0},
				[]any{10.28, 47.41, 830.5},
				[]any{10.29, 47.42, 845.0},
			},
		},
	}

	encoded, ok := geo.ExtractTrailGeometry(meta)
	require.True(t, ok)

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)
	require.Len(t, coords, 3)
	assert.InDelta(t, 47.40, coords[0][0], 1e-5)
	assert.InDelta(t, 10.27, coords[0][1], 1e-5)
	assert.InDelta(t, 47.42, coords[2][0], 1e-5)
}

func TestExtractTrailGeometry_MultiLineStringFlattens(t *testing.T) {
	meta := map[string]any{
		"line": `{"type":"MultiLineString","coordinates":[[[10.0,47.0],[10.1,47.1]],[[10.2,47.2],[10.3,47.3]]]}`,
	}

	points := geo.TrailPoints(meta)
	require.Len(t, points, 4)
	assert.Equal(t, geo.Coordinate{Lat: 47.0, Lon: 10.0}, points[0])
	assert.Equal(t, geo.Coordinate{Lat: 47.3, Lon: 10.3}, points[3])

	_, ok := geo.ExtractTrailGeometry(meta)
	assert.True(t, ok)
}

func TestExtractTrailGeometry_MalformedIsNoTrail(t *testing.T) {
	cases := []map[string]any{
		nil,
		{"route_geometry": "not json"},
		{"route_geometry": map[string]any{"type": "Point", "coordinates": []any{10.0, 47.0}}},
		{"route_geometry": map[string]any{"type": "LineString", "coordinates": "oops"}},
		{"line": map[string]any{"type": "LineString", "coordinates": []any{[]any{10.0, 47.0}}}},
	}
	for _, meta := range cases {
		encoded, ok := geo.ExtractTrailGeometry(meta)
		assert.False(t, ok)
		assert.Empty(t, encoded)
	}
}
