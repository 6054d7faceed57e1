// Package reckon propagates a position estimate forward from heading and
// speed when GNSS cannot be trusted.
package reckon

import (
	"math"

	"github.com/nikkhilaaryan/gps-modulator/internal/geo"
)

// Motion is one step of measured movement. Exactly one of Acceleration or
// Speed normally drives the velocity state: when Acceleration is set the
// velocity is integrated, otherwise when Speed is set the velocity is
// replaced, otherwise the current velocity is kept.
type Motion struct {
	HeadingDeg   float64
	Speed        *float64 // m/s
	Acceleration *float64 // m/s²
}

// Reckoner holds the current dead-reckoned position and velocity for one
// navigation session. Not safe for concurrent use.
type Reckoner struct {
	position geo.Point
	velocity float64 // m/s
}

// New returns a reckoner anchored at the given position with an initial
// velocity in m/s.
func New(initial geo.Point, initialVelocity float64) *Reckoner {
	return &Reckoner{position: initial, velocity: initialVelocity}
}

// Update advances the estimate by dt seconds of the given motion and
// returns the new position. A non-positive dt leaves both position and
// velocity untouched.
//
// The distance traveled is computed from the post-update velocity, not a
// pre/post average. That overshoots slightly under acceleration, but the
// recorded fixture tracks encode exactly this behavior, so it stays.
func (r *Reckoner) Update(m Motion, dt float64) geo.Point {
	if dt <= 0 {
		return r.position
	}
	switch {
	case m.Acceleration != nil:
		r.velocity += *m.Acceleration * dt
	case m.Speed != nil:
		r.velocity = *m.Speed
	}
	r.position = NextPosition(r.position, m.HeadingDeg, r.velocity*dt)
	return r.position
}

// Position returns the current estimated position.
func (r *Reckoner) Position() geo.Point {
	return r.position
}

// Velocity returns the current estimated velocity in m/s.
func (r *Reckoner) Velocity() float64 {
	return r.velocity
}

// Reset zeroes the velocity and, when pos is non-nil, re-anchors the
// position.
func (r *Reckoner) Reset(pos *geo.Point) {
	if pos != nil {
		r.position = *pos
	}
	r.velocity = 0
}

// NextPosition computes the position reached from `from` after traveling
// `distance` meters along the given heading, using the spherical direct
// formula. Longitude is normalized to (-180,180].
func NextPosition(from geo.Point, headingDeg, distance float64) geo.Point {
	lat := from.Lat * math.Pi / 180
	lon := from.Lon * math.Pi / 180
	heading := headingDeg * math.Pi / 180

	// Angular distance on the sphere.
	delta := distance / geo.EarthRadius

	newLat := math.Asin(math.Sin(lat)*math.Cos(delta) +
		math.Cos(lat)*math.Sin(delta)*math.Cos(heading))
	newLon := lon + math.Atan2(
		math.Sin(heading)*math.Sin(delta)*math.Cos(lat),
		math.Cos(delta)-math.Sin(lat)*math.Sin(newLat))

	return geo.Point{
		Lat: newLat * 180 / math.Pi,
		Lon: geo.NormalizeLongitude(newLon * 180 / math.Pi),
	}
}
