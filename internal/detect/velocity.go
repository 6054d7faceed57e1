// Package detect flags GNSS fixes whose implied velocity since the last
// seen fix is physically implausible, which indicates spoofing or a
// receiver glitch.
package detect

import "github.com/nikkhilaaryan/gps-modulator/internal/gps"

// VelocityDetector is a stateful single-step anomaly check. It retains one
// previous fix per navigation session; it is not safe for concurrent use.
type VelocityDetector struct {
	threshold float64 // m/s
	prev      *gps.Fix
}

// NewVelocityDetector returns a detector that flags any fix implying a
// speed above threshold (m/s) since the previously seen fix.
func NewVelocityDetector(threshold float64) *VelocityDetector {
	return &VelocityDetector{threshold: threshold}
}

// Detect reports whether curr is anomalous relative to the previously seen
// fix. The first fix of a session can never be evaluated and is accepted.
//
// The current fix becomes the new baseline whether or not it was flagged:
// a spoofed point is compared against on the next call. Re-anchoring on
// every fix keeps the detector from locking onto a stale baseline when the
// receiver genuinely jumps (tunnel exit, cold restart).
func (d *VelocityDetector) Detect(curr gps.Fix) bool {
	if d.prev == nil {
		d.prev = &curr
		return false
	}
	v := gps.Velocity(d.prev, &curr)
	d.prev = &curr
	return v > d.threshold
}

// Threshold returns the configured velocity threshold in m/s.
func (d *VelocityDetector) Threshold() float64 {
	return d.threshold
}

// Reset clears the retained baseline fix.
func (d *VelocityDetector) Reset() {
	d.prev = nil
}
