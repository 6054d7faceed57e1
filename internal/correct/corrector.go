// Package correct decides, fix by fix, whether to pass GNSS through or to
// substitute a dead-reckoned estimate, and tags every output with how it
// was produced and how much to trust it.
package correct

import (
	"github.com/nikkhilaaryan/gps-modulator/internal/fallback"
	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
	"github.com/nikkhilaaryan/gps-modulator/internal/imu"
	"github.com/nikkhilaaryan/gps-modulator/internal/reckon"
)

// Method identifies how a corrected point was produced.
type Method string

const (
	MethodTrusted            Method = "trusted"
	MethodIMUEnhanced        Method = "imu_enhanced"
	MethodBasicDeadReckoning Method = "basic_dead_reckoning"
	MethodPositionHold       Method = "position_hold"
)

// Source identifies which subsystem produced the coordinates.
type Source string

const (
	SourceGNSS     Source = "gnss"
	SourceFallback Source = "fallback"
)

// Confidence is fixed per method rather than estimated continuously, so
// downstream consumers can apply simple policy floors.
const (
	ConfidenceTrusted            = 1.0
	ConfidenceIMUEnhanced        = 0.9
	ConfidenceBasicDeadReckoning = 0.7
	ConfidencePositionHold       = 0.3
)

// Confidence returns the fixed trust score for a method.
func (m Method) Confidence() float64 {
	switch m {
	case MethodIMUEnhanced:
		return ConfidenceIMUEnhanced
	case MethodBasicDeadReckoning:
		return ConfidenceBasicDeadReckoning
	case MethodPositionHold:
		return ConfidencePositionHold
	default:
		return ConfidenceTrusted
	}
}

// CorrectedPoint is the unified output record handed to navigation
// consumers.
type CorrectedPoint struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Source     Source  `json:"source"`
	Spoofed    bool    `json:"is_spoofed"`
}

// IMUInput carries whatever inertial data accompanies a fix. Sample feeds
// the calibrated attitude path; Heading/Speed form the uncalibrated pair
// for plain dead reckoning when no processor is available. All fields are
// optional.
type IMUInput struct {
	Sample  *imu.Sample
	Heading *float64 // degrees
	Speed   *float64 // m/s
}

// Corrector holds the per-session correction state: the last valid
// position, the optional attitude processor and the fallback state
// machine. Not safe for concurrent use.
type Corrector struct {
	lastValid *gps.Fix
	// lastTimestamp is the timestamp of the most recently emitted point,
	// trusted or corrected. Dead-reckoning steps integrate over the time
	// since the previous output, not since the last trusted fix, so a
	// run of anomalies does not double-count elapsed time.
	lastTimestamp float64
	manager       *fallback.Manager
	processor     *imu.Processor
	useIMU        bool
}

// NewCorrector returns a corrector driving the given fallback manager.
// A nil manager gets a fresh one.
func NewCorrector(m *fallback.Manager) *Corrector {
	if m == nil {
		m = fallback.NewManager()
	}
	return &Corrector{manager: m}
}

// EnableIMUCorrection attaches an attitude processor so that anomalous
// fixes with a raw sample take the calibrated dead-reckoning path.
func (c *Corrector) EnableIMUCorrection(opts imu.Options) {
	c.processor = imu.NewProcessor(opts)
	c.useIMU = true
}

// DisableIMUCorrection detaches the attitude processor; anomalous fixes
// fall back to the plain heading/speed path or to holding position.
func (c *Corrector) DisableIMUCorrection() {
	c.processor = nil
	c.useIMU = false
}

// Manager exposes the fallback state machine driven by this corrector.
func (c *Corrector) Manager() *fallback.Manager {
	return c.manager
}

// LastValid returns the last accepted GNSS fix, or nil before the first.
func (c *Corrector) LastValid() *gps.Fix {
	return c.lastValid
}

// Correct resolves one fix into an output record.
//
// A trusted fix (first ever seen, or not flagged) passes through verbatim
// and becomes the new last-valid position. An anomalous fix is replaced by
// the best estimate the available inertial data supports; failures on the
// richer paths degrade to the poorer ones rather than surfacing an error,
// so this never fails for anomalous-but-processable input.
func (c *Corrector) Correct(point gps.Fix, spoofed bool, in IMUInput) CorrectedPoint {
	if c.lastValid == nil || !spoofed {
		c.accept(point)
		return CorrectedPoint{
			Latitude:   point.Latitude,
			Longitude:  point.Longitude,
			Timestamp:  point.Timestamp,
			Confidence: ConfidenceTrusted,
			Method:     MethodTrusted,
			Source:     SourceGNSS,
		}
	}

	dt := point.Timestamp - c.lastTimestamp
	c.lastTimestamp = point.Timestamp

	if c.useIMU && in.Sample != nil {
		if out, ok := c.imuEnhanced(point, *in.Sample, dt); ok {
			return out
		}
		// Processing failed; degrade to the uncalibrated path.
	}
	if in.Heading != nil && in.Speed != nil {
		if out, ok := c.basicDeadReckoning(point, *in.Heading, *in.Speed, dt); ok {
			return out
		}
	}
	return c.hold(point)
}

// Reset clears the session state: last valid position, fallback state and
// the processor's temporal smoothing. The calibration profile survives.
func (c *Corrector) Reset() {
	c.lastValid = nil
	c.lastTimestamp = 0
	c.manager = fallback.NewManager()
	if c.processor != nil {
		c.processor.Reset()
	}
}

func (c *Corrector) accept(point gps.Fix) {
	c.lastValid = &point
	c.lastTimestamp = point.Timestamp
	if c.manager.Active() {
		c.manager.HandleGpsRestored(point.Point())
	}
}

func (c *Corrector) imuEnhanced(point gps.Fix, sample imu.Sample, dt float64) (CorrectedPoint, bool) {
	if dt <= 0 {
		// No elapsed time to integrate over; nothing better than holding.
		return CorrectedPoint{}, false
	}
	proc, err := c.processor.Process(sample)
	if err != nil {
		return CorrectedPoint{}, false
	}
	mv := c.processor.MotionVector(proc, dt)
	anchor := c.lastValid.Point()
	est, err := c.manager.HandleFallback(&anchor, reckon.Motion{
		HeadingDeg: mv.Heading,
		Speed:      &mv.Speed,
	}, dt)
	if err != nil {
		return CorrectedPoint{}, false
	}
	return CorrectedPoint{
		Latitude:   est.Lat,
		Longitude:  est.Lon,
		Timestamp:  point.Timestamp,
		Confidence: ConfidenceIMUEnhanced,
		Method:     MethodIMUEnhanced,
		Source:     SourceFallback,
		Spoofed:    true,
	}, true
}

func (c *Corrector) basicDeadReckoning(point gps.Fix, heading, speed float64, dt float64) (CorrectedPoint, bool) {
	anchor := c.lastValid.Point()
	est, err := c.manager.HandleFallback(&anchor, reckon.Motion{
		HeadingDeg: heading,
		Speed:      &speed,
	}, dt)
	if err != nil {
		return CorrectedPoint{}, false
	}
	return CorrectedPoint{
		Latitude:   est.Lat,
		Longitude:  est.Lon,
		Timestamp:  point.Timestamp,
		Confidence: ConfidenceBasicDeadReckoning,
		Method:     MethodBasicDeadReckoning,
		Source:     SourceFallback,
		Spoofed:    true,
	}, true
}

func (c *Corrector) hold(point gps.Fix) CorrectedPoint {
	return CorrectedPoint{
		Latitude:   c.lastValid.Latitude,
		Longitude:  c.lastValid.Longitude,
		Timestamp:  point.Timestamp,
		Confidence: ConfidencePositionHold,
		Method:     MethodPositionHold,
		Source:     SourceFallback,
		Spoofed:    true,
	}
}
