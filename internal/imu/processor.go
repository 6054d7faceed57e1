package imu

import (
	"errors"
	"math"

	"github.com/nikkhilaaryan/gps-modulator/internal/geo"
)

// ErrDegenerateAccel is returned when the calibrated acceleration vector
// has zero magnitude, which leaves the attitude undefined.
var ErrDegenerateAccel = errors.New("imu: zero-magnitude acceleration vector")

// Attitude is the calibrated orientation derived from one sample.
type Attitude struct {
	Heading float64 `json:"heading"` // degrees from magnetic north, [0,360)
	Pitch   float64 `json:"pitch"`   // degrees
	Roll    float64 `json:"roll"`    // degrees
}

// Processed is a fully calibrated sample plus its derived attitude.
type Processed struct {
	Attitude

	Accel     [3]float64
	Gyro      [3]float64
	Mag       [3]float64
	Timestamp float64
}

// Motion is the instantaneous movement estimate derived from a processed
// sample: heading plus a first-order speed approximation. The speed term
// integrates raw horizontal acceleration over a single step and is noise
// sensitive; it is only usable as a secondary signal when GNSS is gone.
type Motion struct {
	Heading      float64 // degrees, [0,360)
	Speed        float64 // m/s
	Acceleration float64 // horizontal magnitude, m/s²
}

// Options configures a Processor. Zero values select the defaults noted
// per field.
type Options struct {
	DeclinationDeg float64     // magnetic declination added to headings
	Alpha          float64     // complementary-filter weight on gyro integration; default 0.8
	WindowSize     int         // heading smoothing window; default 10
	Calibration    Calibration // initial bias profile; default zero biases
}

const (
	defaultAlpha      = 0.8
	defaultWindowSize = 10
)

// Processor converts raw samples into calibrated attitude with temporal
// smoothing. It owns the session state (previous processed sample, heading
// window, calibration profile) and is not safe for concurrent use.
type Processor struct {
	cal         Calibration
	declination float64
	alpha       float64
	windowSize  int

	window []float64
	prev   *Processed
}

// NewProcessor returns a processor with the given options applied.
func NewProcessor(opts Options) *Processor {
	if opts.Alpha == 0 {
		opts.Alpha = defaultAlpha
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = defaultWindowSize
	}
	return &Processor{
		cal:         opts.Calibration,
		declination: opts.DeclinationDeg,
		alpha:       opts.Alpha,
		windowSize:  opts.WindowSize,
	}
}

// Process derives calibrated heading, pitch and roll from one raw sample
// and advances the smoothing state.
//
// Heading fuses a gyro-integrated estimate (stable short-term, drifts)
// with the tilt-compensated magnetometer heading (noisy, stable long-term)
// through a fixed complementary filter, then reports the mean of a bounded
// window of recent headings.
func (p *Processor) Process(s Sample) (Processed, error) {
	accel := [3]float64{
		s.Ax - p.cal.AccelBias[0],
		s.Ay - p.cal.AccelBias[1],
		s.Az - p.cal.AccelBias[2],
	}
	gyro := [3]float64{
		s.Gx - p.cal.GyroBias[0],
		s.Gy - p.cal.GyroBias[1],
		s.Gz - p.cal.GyroBias[2],
	}
	mag := [3]float64{
		s.Mx - p.cal.MagBias[0],
		s.My - p.cal.MagBias[1],
		s.Mz - p.cal.MagBias[2],
	}

	pitch, roll, err := attitudeFromAccel(accel)
	if err != nil {
		return Processed{}, err
	}
	heading := p.headingFromMag(mag, pitch, roll)

	if p.prev != nil {
		if dt := s.Timestamp - p.prev.Timestamp; dt > 0 {
			gyroHeading := p.prev.Heading + gyro[2]*dt
			heading = p.alpha*gyroHeading + (1-p.alpha)*heading
		}
	}

	p.window = append(p.window, heading)
	if len(p.window) > p.windowSize {
		p.window = p.window[1:]
	}
	var sum float64
	for _, h := range p.window {
		sum += h
	}
	heading = geo.NormalizeHeading(sum / float64(len(p.window)))

	out := Processed{
		Attitude:  Attitude{Heading: heading, Pitch: pitch, Roll: roll},
		Accel:     accel,
		Gyro:      gyro,
		Mag:       mag,
		Timestamp: s.Timestamp,
	}
	p.prev = &out
	return out, nil
}

// MotionVector derives the instantaneous motion estimate from a processed
// sample over dt seconds. Speed is zero until at least one sample has been
// processed, since single-step acceleration integration needs a baseline.
func (p *Processor) MotionVector(proc Processed, dt float64) Motion {
	horiz := math.Hypot(proc.Accel[0], proc.Accel[1])
	m := Motion{Heading: proc.Heading, Acceleration: horiz}
	if p.prev != nil {
		m.Speed = horiz * dt
	}
	return m
}

// Calibrate replaces the active bias profile with one derived from the
// given stationary batch.
func (p *Processor) Calibrate(samples []Sample) {
	p.cal = Calibrate(samples)
}

// SetCalibration replaces the active bias profile.
func (p *Processor) SetCalibration(c Calibration) {
	p.cal = c
}

// Calibration returns the active bias profile.
func (p *Processor) Calibration() Calibration {
	return p.cal
}

// Reset clears the previous-sample state and the heading window. The
// calibration profile survives a reset.
func (p *Processor) Reset() {
	p.prev = nil
	p.window = p.window[:0]
}

// attitudeFromAccel computes pitch and roll in degrees from the normalized
// acceleration vector.
func attitudeFromAccel(accel [3]float64) (pitch, roll float64, err error) {
	norm := math.Sqrt(accel[0]*accel[0] + accel[1]*accel[1] + accel[2]*accel[2])
	if norm == 0 {
		return 0, 0, ErrDegenerateAccel
	}
	ax := accel[0] / norm
	ay := accel[1] / norm
	az := accel[2] / norm

	pitch = math.Atan2(ax, math.Sqrt(ay*ay+az*az)) * 180 / math.Pi
	roll = math.Atan2(ay, math.Sqrt(ax*ax+az*az)) * 180 / math.Pi
	return pitch, roll, nil
}

// headingFromMag tilt-compensates the magnetic field using pitch/roll and
// returns the heading in degrees, [0,360), with declination applied.
func (p *Processor) headingFromMag(mag [3]float64, pitchDeg, rollDeg float64) float64 {
	pitch := pitchDeg * math.Pi / 180
	roll := rollDeg * math.Pi / 180

	magX := mag[0]*math.Cos(pitch) + mag[2]*math.Sin(pitch)
	magY := mag[0]*math.Sin(roll)*math.Sin(pitch) +
		mag[1]*math.Cos(roll) -
		mag[2]*math.Sin(roll)*math.Cos(pitch)

	heading := math.Atan2(magY, magX) * 180 / math.Pi
	if heading < 0 {
		heading += 360
	}
	return geo.NormalizeHeading(heading + p.declination)
}
