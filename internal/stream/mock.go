package stream

import (
	"math"
	"math/rand"
	"time"

	"github.com/nikkhilaaryan/gps-modulator/internal/geo"
	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
	"github.com/nikkhilaaryan/gps-modulator/internal/imu"
	"github.com/nikkhilaaryan/gps-modulator/internal/reckon"
)

// MockOptions configures the mock generator. Zero values get sensible
// defaults.
type MockOptions struct {
	Start      geo.Point
	HeadingDeg float64
	Speed      float64       // m/s, default 10
	Interval   time.Duration // simulated fix cadence, default 1s
	SpoofRate  float64       // probability per fix of an injected jump
	SpoofJump  float64       // jump distance in meters, default 2000
	Seed       int64         // 0 means time-based
}

// Mock simulates a vehicle driving a random-walk track and occasionally
// reports a spoofed position far off the track. The true track is not
// disturbed by an injected jump, so the following fix looks like a
// recovery.
type Mock struct {
	rng     *rand.Rand
	pos     geo.Point
	heading float64
	speed   float64
	dt      float64
	rate    float64
	jump    float64
	ts      float64
}

// NewMock creates a mock fix source that generates a smooth track with
// occasional spoofed jumps.
func NewMock(opts MockOptions) *Mock {
	if opts.Speed == 0 {
		opts.Speed = 10
	}
	if opts.Interval == 0 {
		opts.Interval = time.Second
	}
	if opts.SpoofJump == 0 {
		opts.SpoofJump = 2000
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Mock{
		rng:     rand.New(rand.NewSource(seed)),
		pos:     opts.Start,
		heading: geo.NormalizeHeading(opts.HeadingDeg),
		speed:   opts.Speed,
		dt:      opts.Interval.Seconds(),
		rate:    opts.SpoofRate,
		jump:    opts.SpoofJump,
		ts:      float64(time.Now().Unix()),
	}
}

// Next returns the next simulated fix. Never fails.
func (m *Mock) Next() (gps.Fix, error) {
	m.ts += m.dt

	if m.rng.Float64() < m.rate {
		jumped := reckon.NextPosition(m.pos, m.rng.Float64()*360, m.jump)
		return m.fix(jumped), nil
	}

	m.heading = geo.NormalizeHeading(m.heading + (m.rng.Float64()-0.5)*10)
	m.pos = reckon.NextPosition(m.pos, m.heading, m.speed*m.dt)
	return m.fix(m.pos), nil
}

func (m *Mock) fix(p geo.Point) gps.Fix {
	speed := m.speed
	return gps.Fix{
		Latitude:  p.Lat,
		Longitude: p.Lon,
		Timestamp: m.ts,
		Speed:     &speed,
	}
}

// Sample returns an inertial sample consistent with the current simulated
// motion: level attitude, magnetic field pointing along the heading.
func (m *Mock) Sample() imu.Sample {
	h := m.heading * math.Pi / 180
	return imu.Sample{
		Az:        9.81,
		Mx:        math.Cos(h),
		My:        math.Sin(h),
		Timestamp: m.ts,
	}
}

// Heading returns the current true heading of the simulated track.
func (m *Mock) Heading() float64 { return m.heading }

// Speed returns the constant simulated speed.
func (m *Mock) Speed() float64 { return m.speed }

func (m *Mock) Close() error { return nil }

// MockIMU adapts a Mock track into an inertial sample source.
type MockIMU struct {
	track *Mock
}

// NewMockIMU returns a sample source reporting the mock track's motion.
func NewMockIMU(track *Mock) *MockIMU {
	return &MockIMU{track: track}
}

func (m *MockIMU) Next() (imu.Sample, error) {
	return m.track.Sample(), nil
}
