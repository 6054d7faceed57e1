// Package validate is the top-level façade: one GNSS fix plus whatever
// inertial data accompanies it go in, one corrected point with provenance
// comes out.
package validate

import (
	"github.com/nikkhilaaryan/gps-modulator/internal/correct"
	"github.com/nikkhilaaryan/gps-modulator/internal/detect"
	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

// Engine chains the velocity anomaly detector and the path corrector for
// one navigation session. Callers feeding it from multiple goroutines
// must serialize into a single stream first; the engine holds mutable
// state and takes no locks.
type Engine struct {
	detector  *detect.VelocityDetector
	corrector *correct.Corrector
}

// New returns an engine built from an existing detector and corrector,
// which keeps all tuning (threshold, declination, filter constants) at
// construction time.
func New(d *detect.VelocityDetector, c *correct.Corrector) *Engine {
	return &Engine{detector: d, corrector: c}
}

// Validate runs one fix through detection and correction. It always
// returns a point: anomalous input is corrected or held, never rejected,
// and the input timestamp is passed through so the output stream stays
// monotonic as long as the input is.
func (e *Engine) Validate(fix gps.Fix, in correct.IMUInput) correct.CorrectedPoint {
	spoofed := e.detector.Detect(fix)
	return e.corrector.Correct(fix, spoofed, in)
}

// FallbackActive reports whether the session is currently substituting
// dead reckoning for GNSS.
func (e *Engine) FallbackActive() bool {
	return e.corrector.Manager().Active()
}

// Reset tears down the session state in both stages so the engine can be
// reused for a new stream.
func (e *Engine) Reset() {
	e.detector.Reset()
	e.corrector.Reset()
}
