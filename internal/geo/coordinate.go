package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the coordinate as "lat,lon".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// point converts to orb's [lon, lat] ordering.
func (c Coordinate) point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// PlaceQuery names a place, optionally with a coordinate that is already
// known so callers can skip geocoding.
type PlaceQuery struct {
	Name  string      `json:"name"`
	Coord *Coordinate `json:"coord,omitempty"`
}

// Place builds a PlaceQuery carrying a resolved coordinate.
func Place(name string, c Coordinate) PlaceQuery {
	return PlaceQuery{Name: name, Coord: &c}
}

// DistanceKm returns the haversine great-circle distance between a and b in kilometers.
func DistanceKm(a, b Coordinate) float64 {
	return orbgeo.DistanceHaversine(a.point(), b.point()) / 1000
}
