// Package gps defines the canonical GNSS fix record used everywhere past
// the ingestion boundary.
package gps

import (
	"encoding/json"

	"github.com/nikkhilaaryan/gps-modulator/internal/geo"
)

// Fix represents a single normalized GNSS fix suitable for JSON and MQTT.
type Fix struct {
	Latitude  float64  `json:"latitude"`           // decimal degrees, [-90,90]
	Longitude float64  `json:"longitude"`          // decimal degrees, [-180,180]
	Timestamp float64  `json:"timestamp"`          // monotonic seconds
	Altitude  *float64 `json:"altitude,omitempty"` // meters, when the source reports it
	Speed     *float64 `json:"speed,omitempty"`    // m/s over ground, when reported
}

// fixWire mirrors Fix plus the short coordinate spellings seen in the wild
// ("lat"/"lon"/"ts"). Sources emit either spelling; decoding folds both into
// the canonical struct so nothing downstream branches on key names.
type fixWire struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Timestamp *float64 `json:"timestamp"`
	TS        *float64 `json:"ts"`
	Altitude  *float64 `json:"altitude"`
	Speed     *float64 `json:"speed"`
}

// UnmarshalJSON accepts both latitude/longitude/timestamp and lat/lon/ts
// spellings. The long form wins when a record carries both.
func (f *Fix) UnmarshalJSON(data []byte) error {
	var w fixWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Fix{Altitude: w.Altitude, Speed: w.Speed}
	switch {
	case w.Latitude != nil:
		f.Latitude = *w.Latitude
	case w.Lat != nil:
		f.Latitude = *w.Lat
	}
	switch {
	case w.Longitude != nil:
		f.Longitude = *w.Longitude
	case w.Lon != nil:
		f.Longitude = *w.Lon
	}
	switch {
	case w.Timestamp != nil:
		f.Timestamp = *w.Timestamp
	case w.TS != nil:
		f.Timestamp = *w.TS
	}
	return nil
}

// Valid reports whether the fix carries in-range coordinates. It is the
// ingestion-boundary check; the core assumes fixes passed to it are valid.
func (f Fix) Valid() bool {
	return geo.ValidCoordinates(f.Latitude, f.Longitude)
}

// Point returns the coordinate pair of the fix.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// Velocity returns the implied speed in m/s between two fixes. It is zero
// when either fix is missing or when the elapsed time is not positive, so a
// stalled or repeated timestamp can never divide by zero.
func Velocity(prev, curr *Fix) float64 {
	if prev == nil || curr == nil {
		return 0
	}
	dt := curr.Timestamp - prev.Timestamp
	if dt <= 0 {
		return 0
	}
	return geo.Distance(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude) / dt
}
