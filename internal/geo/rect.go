// Package geo provides the viewport rectangle math used by the map session
// and the catalog's bounding-box queries.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Rect is a latitude/longitude rectangle. Unlike a plain min/max pair it
// handles rectangles that cross the antimeridian (min_lng > max_lng).
type Rect struct {
	r s2.Rect
}

// RectFromDegrees builds a Rect from its corner coordinates in degrees.
// The longitude interval runs eastward from minLng to maxLng, so a rect
// with minLng > maxLng crosses the antimeridian.
func RectFromDegrees(minLat, minLng, maxLat, maxLng float64) Rect {
	lo := s2.LatLngFromDegrees(minLat, minLng)
	hi := s2.LatLngFromDegrees(maxLat, maxLng)
	return Rect{s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.IntervalFromEndpoints(lo.Lng.Radians(), hi.Lng.Radians()),
	}}
}

// Padded returns the rect expanded by the given angular margin in degrees
// on every side. Latitude is clamped at the poles; a longitude span that
// would exceed the full circle becomes full.
func (r Rect) Padded(deg float64) Rect {
	// s2.Rect's expanded method is unexported; this mirrors it exactly
	// using the exported r1/s1 interval APIs.
	margin := s2.LatLngFromDegrees(deg, deg)
	lat := r.r.Lat.Expanded(margin.Lat.Radians())
	lng := r.r.Lng.Expanded(margin.Lng.Radians())
	if lat.IsEmpty() || lng.IsEmpty() {
		return Rect{s2.EmptyRect()}
	}
	return Rect{s2.Rect{
		Lat: lat.Intersection(r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}),
		Lng: lng,
	}}
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(lat, lng float64) bool {
	return r.r.ContainsLatLng(s2.LatLngFromDegrees(lat, lng))
}

// Center returns the center point of the rect in degrees.
func (r Rect) Center() (lat, lng float64) {
	c := r.r.Center()
	return c.Lat.Degrees(), c.Lng.Degrees()
}

// IsEmpty reports whether the rect contains no points.
func (r Rect) IsEmpty() bool {
	return r.r.IsEmpty()
}

// Box is a non-wrapping rectangle in degrees, suitable for SQL range
// predicates and wire encoding.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Boxes splits the rect into one or two non-wrapping boxes. A rect that
// crosses the antimeridian yields two boxes, one on each side.
func (r Rect) Boxes() []Box {
	if r.r.IsEmpty() {
		return nil
	}
	minLat := s1.Angle(r.r.Lat.Lo).Degrees()
	maxLat := s1.Angle(r.r.Lat.Hi).Degrees()

	if r.r.Lng.IsFull() {
		return []Box{{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: 180}}
	}

	minLng := s1.Angle(r.r.Lng.Lo).Degrees()
	maxLng := s1.Angle(r.r.Lng.Hi).Degrees()
	if minLng <= maxLng {
		return []Box{{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}}
	}
	return []Box{
		{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: 180},
		{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: maxLng},
	}
}

// String implements fmt.Stringer for log output.
func (r Rect) String() string {
	boxes := r.Boxes()
	if len(boxes) == 0 {
		return "empty"
	}
	b := boxes[0]
	if len(boxes) == 2 {
		b.MaxLng = boxes[1].MaxLng
	}
	return fmt.Sprintf("[%.4f,%.4f]..[%.4f,%.4f]", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}
