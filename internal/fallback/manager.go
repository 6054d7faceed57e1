// Package fallback owns the two-state machine that substitutes dead
// reckoning for GNSS while fixes are untrustworthy.
package fallback

import (
	"errors"

	"github.com/nikkhilaaryan/gps-modulator/internal/geo"
	"github.com/nikkhilaaryan/gps-modulator/internal/reckon"
)

// ErrNoTrustedPosition is returned when fallback is requested before any
// trusted position exists to anchor the reckoner. Estimating from an
// arbitrary origin would be meaningless, so this fails fast instead.
var ErrNoTrustedPosition = errors.New("fallback: no trusted position to anchor dead reckoning")

// Manager is Inactive while GNSS is trusted and Active while a dead
// reckoner substitutes for it. One instance per navigation session; not
// safe for concurrent use.
type Manager struct {
	active       bool
	lastPosition *geo.Point
	reckoner     *reckon.Reckoner
}

// NewManager returns a manager in the Inactive state.
func NewManager() *Manager {
	return &Manager{}
}

// HandleFallback produces a dead-reckoned estimate for one step of dt
// seconds.
//
// On the Inactive→Active transition it anchors a fresh reckoner at the
// given trusted position with the motion's speed as initial velocity and
// runs one update. While already Active the anchor is ignored and the
// existing reckoner keeps integrating, so repeated calls yield a
// continuous dead-reckoned track.
func (m *Manager) HandleFallback(anchor *geo.Point, motion reckon.Motion, dt float64) (geo.Point, error) {
	if !m.active {
		if anchor == nil {
			return geo.Point{}, ErrNoTrustedPosition
		}
		var v0 float64
		if motion.Speed != nil {
			v0 = *motion.Speed
		}
		m.active = true
		m.lastPosition = anchor
		m.reckoner = reckon.New(*anchor, v0)
	}
	return m.reckoner.Update(motion, dt), nil
}

// HandleGpsRestored transitions back to Inactive, discards the reckoner
// and records the restored position as last known. No-op while Inactive.
func (m *Manager) HandleGpsRestored(pos geo.Point) {
	if !m.active {
		return
	}
	m.active = false
	m.lastPosition = &pos
	m.reckoner = nil
}

// Active reports whether dead reckoning is currently substituting for
// GNSS.
func (m *Manager) Active() bool {
	return m.active
}

// LastPosition returns the most recently recorded trusted position, or
// nil when none exists yet.
func (m *Manager) LastPosition() *geo.Point {
	return m.lastPosition
}
