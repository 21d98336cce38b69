package geo

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

var (
	latKeys      = []string{"lat", "latitude"}
	lonKeys      = []string{"lon", "lng", "longitude"}
	combinedKeys = []string{"geo", "latlon", "coordinates", "location"}
	nestedKeys   = []string{"location", "geo", "position", "geometry"}
)

// ExtractCoordinate looks for a coordinate in a loosely structured metadata
// map. Shapes are tried in order: explicit lat/lon fields, a combined
// "lat,lon" string, then a nested location object. Missing or malformed
// values report false.
func ExtractCoordinate(meta map[string]any) (Coordinate, bool) {
	return extractCoordinate(meta, 0)
}

func extractCoordinate(meta map[string]any, depth int) (Coordinate, bool) {
	if len(meta) == 0 || depth > 2 {
		return Coordinate{}, false
	}

	if c, ok := explicitFields(meta); ok {
		return c, true
	}

	for _, k := range combinedKeys {
		if s, ok := meta[k].(string); ok {
			if c, ok := parseLatLon(s); ok {
				return c, true
			}
		}
	}

	for _, k := range nestedKeys {
		raw, ok := meta[k]
		if !ok || raw == nil {
			continue
		}
		nested, err := cast.ToStringMapE(raw)
		if err != nil {
			continue
		}
		if c, ok := geoJSONPoint(nested); ok {
			return c, true
		}
		if c, ok := extractCoordinate(nested, depth+1); ok {
			return c, true
		}
	}

	return Coordinate{}, false
}

func explicitFields(meta map[string]any) (Coordinate, bool) {
	lat, ok := firstNumber(meta, latKeys)
	if !ok {
		return Coordinate{}, false
	}
	lon, ok := firstNumber(meta, lonKeys)
	if !ok {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lon: lon}, true
}

func firstNumber(meta map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := toFloat(meta[k]); ok {
			return v, true
		}
	}
	return 0, false
}

// geoJSONPoint reads {"type": "Point", "coordinates": [lon, lat]}.
func geoJSONPoint(meta map[string]any) (Coordinate, bool) {
	if t, _ := meta["type"].(string); !strings.EqualFold(t, "Point") {
		return Coordinate{}, false
	}
	coords, ok := meta["coordinates"].([]any)
	if !ok || len(coords) < 2 {
		return Coordinate{}, false
	}
	lon, ok := toFloat(coords[0])
	if !ok {
		return Coordinate{}, false
	}
	lat, ok := toFloat(coords[1])
	if !ok {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lon: lon}, true
}

func parseLatLon(s string) (Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}
	lat, ok := toFloat(strings.TrimSpace(parts[0]))
	if !ok {
		return Coordinate{}, false
	}
	lon, ok := toFloat(strings.TrimSpace(parts[1]))
	if !ok {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lon: lon}, true
}

// toFloat treats nil, empty strings and non-finite values as absent.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
	case bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
