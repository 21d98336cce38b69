package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

var trailKeys = []string{"route_geometry", "line", "geometry", "trail"}

// EncodePolyline encodes points with the 1e-5 precision polyline algorithm.
// An empty input yields an empty string.
func EncodePolyline(points []Coordinate) string {
	if len(points) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// ExtractTrailGeometry reads a GeoJSON LineString or MultiLineString from
// meta and returns it as an encoded polyline. Elevation is dropped.
func ExtractTrailGeometry(meta map[string]any) (string, bool) {
	points := TrailPoints(meta)
	if len(points) < 2 {
		return "", false
	}
	return EncodePolyline(points), true
}

// TrailPoints returns the flattened trail coordinates found in meta, or nil.
func TrailPoints(meta map[string]any) []Coordinate {
	for _, k := range trailKeys {
		raw, ok := meta[k]
		if !ok || raw == nil {
			continue
		}
		if points := parseLineGeometry(raw); len(points) > 0 {
			return points
		}
	}
	return nil
}

func parseLineGeometry(raw any) []Coordinate {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		data = b
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil || g == nil {
		return nil
	}

	var points []Coordinate
	switch line := g.Geometry().(type) {
	case orb.LineString:
		points = appendLine(points, line)
	case orb.MultiLineString:
		for _, ls := range line {
			points = appendLine(points, ls)
		}
	}
	return points
}

func appendLine(dst []Coordinate, ls orb.LineString) []Coordinate {
	for _, p := range ls {
		dst = append(dst, Coordinate{Lat: p.Lat(), Lon: p.Lon()})
	}
	return dst
}
