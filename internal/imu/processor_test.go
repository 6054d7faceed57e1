package imu

import (
	"errors"
	"math"
	"testing"
)

// flat returns a stationary sample: gravity on Z, magnetic field pointing
// along the given compass heading in the horizontal plane.
func flat(headingDeg, ts float64) Sample {
	h := headingDeg * math.Pi / 180
	return Sample{
		Az:        9.81,
		Mx:        math.Cos(h),
		My:        math.Sin(h),
		Timestamp: ts,
	}
}

func TestProcessor_Process_LevelAttitude(t *testing.T) {
	p := NewProcessor(Options{})
	got, err := p.Process(flat(0, 1))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Pitch) > 1e-9 || math.Abs(got.Roll) > 1e-9 {
		t.Fatalf("level sample gave pitch=%v roll=%v", got.Pitch, got.Roll)
	}
	if math.Abs(got.Heading) > 1e-9 {
		t.Fatalf("north-pointing field gave heading %v", got.Heading)
	}
}

func TestProcessor_Process_TiltAngles(t *testing.T) {
	p := NewProcessor(Options{})

	// Equal X and Z components: 45° pitch, level roll.
	got, err := p.Process(Sample{Ax: 1, Az: 1, Mx: 1, Timestamp: 1})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Pitch-45) > 1e-9 {
		t.Fatalf("pitch = %v, want 45", got.Pitch)
	}
	if math.Abs(got.Roll) > 1e-9 {
		t.Fatalf("roll = %v, want 0", got.Roll)
	}
}

func TestProcessor_Process_DegenerateAccel(t *testing.T) {
	p := NewProcessor(Options{})
	_, err := p.Process(Sample{Mx: 1, Timestamp: 1})
	if !errors.Is(err, ErrDegenerateAccel) {
		t.Fatalf("err = %v, want ErrDegenerateAccel", err)
	}
}

func TestProcessor_Process_Declination(t *testing.T) {
	p := NewProcessor(Options{DeclinationDeg: 10})
	got, err := p.Process(flat(0, 1))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Heading-10) > 1e-9 {
		t.Fatalf("heading = %v, want 10", got.Heading)
	}
}

func TestProcessor_Process_DeclinationWraps(t *testing.T) {
	p := NewProcessor(Options{DeclinationDeg: 350})
	got, err := p.Process(flat(20, 1))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Heading-10) > 1e-9 {
		t.Fatalf("heading = %v, want 10 after wrap", got.Heading)
	}
	if got.Heading < 0 || got.Heading >= 360 {
		t.Fatalf("heading outside [0,360): %v", got.Heading)
	}
}

func TestProcessor_Process_ComplementaryFilter(t *testing.T) {
	p := NewProcessor(Options{WindowSize: 1})

	// Establish a 90° heading, then feed a contradicting magnetometer
	// reading with no gyro rotation. The default alpha of 0.8 keeps most
	// of the gyro-integrated (unchanged) heading.
	if _, err := p.Process(flat(90, 1)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got, err := p.Process(flat(0, 2))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := 0.8*90 + 0.2*0 // 72
	if math.Abs(got.Heading-want) > 1e-9 {
		t.Fatalf("blended heading = %v, want %v", got.Heading, want)
	}
}

func TestProcessor_Process_GyroIntegration(t *testing.T) {
	p := NewProcessor(Options{WindowSize: 1})

	if _, err := p.Process(flat(90, 1)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	// 10°/s yaw for two seconds with the magnetometer agreeing on the end
	// heading: both filter terms land on 110.
	s := flat(110, 3)
	s.Gz = 10
	got, err := p.Process(s)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Heading-110) > 1e-9 {
		t.Fatalf("heading = %v, want 110", got.Heading)
	}
}

func TestProcessor_Process_WindowSmoothing(t *testing.T) {
	p := NewProcessor(Options{WindowSize: 2})

	// Three identical samples settle the filter at 90.
	for ts := 1.0; ts <= 3; ts++ {
		if _, err := p.Process(flat(90, ts)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	// The next sample blends to 72; the bounded window then averages the
	// last two headings only.
	got, err := p.Process(flat(0, 4))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := (90.0 + 72.0) / 2
	if math.Abs(got.Heading-want) > 1e-9 {
		t.Fatalf("smoothed heading = %v, want %v", got.Heading, want)
	}
}

func TestProcessor_Process_NonPositiveElapsedSkipsBlend(t *testing.T) {
	p := NewProcessor(Options{WindowSize: 1})

	if _, err := p.Process(flat(90, 5)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	// Same timestamp: the gyro term has no elapsed time to integrate
	// over, so the magnetometer heading is used as-is.
	got, err := p.Process(flat(40, 5))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Heading-40) > 1e-9 {
		t.Fatalf("heading = %v, want 40 (no blend)", got.Heading)
	}
}

func TestCalibrate(t *testing.T) {
	got := Calibrate([]Sample{
		{Ax: 1, Ay: 2, Az: 3, Gx: 0.1, Gy: 0.2, Gz: 0.3, Mx: 10, My: 20, Mz: 30},
		{Ax: 3, Ay: 4, Az: 5, Gx: 0.3, Gy: 0.4, Gz: 0.5, Mx: 30, My: 40, Mz: 50},
	})
	want := Calibration{
		AccelBias: [3]float64{2, 3, 4},
		GyroBias:  [3]float64{0.2, 0.3, 0.4},
		MagBias:   [3]float64{20, 30, 40},
	}
	// The averaged biases accumulate floating-point error, so compare per
	// channel with a tolerance rather than struct equality.
	for i := 0; i < 3; i++ {
		if math.Abs(got.AccelBias[i]-want.AccelBias[i]) > 1e-9 {
			t.Fatalf("AccelBias[%d] = %v, want %v", i, got.AccelBias[i], want.AccelBias[i])
		}
		if math.Abs(got.GyroBias[i]-want.GyroBias[i]) > 1e-9 {
			t.Fatalf("GyroBias[%d] = %v, want %v", i, got.GyroBias[i], want.GyroBias[i])
		}
		if math.Abs(got.MagBias[i]-want.MagBias[i]) > 1e-9 {
			t.Fatalf("MagBias[%d] = %v, want %v", i, got.MagBias[i], want.MagBias[i])
		}
	}

	if zero := Calibrate(nil); zero != (Calibration{}) {
		t.Fatalf("empty batch should give zero profile, got %+v", zero)
	}
}

func TestProcessor_CalibrationApplied(t *testing.T) {
	p := NewProcessor(Options{Calibration: Calibration{
		AccelBias: [3]float64{0.5, -0.5, 0},
		MagBias:   [3]float64{0, 1, 0},
	}})

	// Raw sample whose calibrated form is flat-and-north.
	got, err := p.Process(Sample{Ax: 0.5, Ay: -0.5, Az: 9.81, Mx: 1, My: 1, Timestamp: 1})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Pitch) > 1e-9 || math.Abs(got.Roll) > 1e-9 || math.Abs(got.Heading) > 1e-9 {
		t.Fatalf("bias not subtracted: %+v", got.Attitude)
	}
}

func TestProcessor_MotionVector(t *testing.T) {
	p := NewProcessor(Options{})

	proc, err := p.Process(Sample{Ax: 3, Ay: 4, Az: 9.81, Mx: 1, Timestamp: 1})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	mv := p.MotionVector(proc, 2)
	if math.Abs(mv.Acceleration-5) > 1e-9 {
		t.Fatalf("horizontal acceleration = %v, want 5", mv.Acceleration)
	}
	if math.Abs(mv.Speed-10) > 1e-9 {
		t.Fatalf("speed = %v, want 10", mv.Speed)
	}
	if mv.Heading != proc.Heading {
		t.Fatalf("heading = %v, want %v", mv.Heading, proc.Heading)
	}
}

func TestProcessor_MotionVector_NoBaseline(t *testing.T) {
	p := NewProcessor(Options{})
	mv := p.MotionVector(Processed{Accel: [3]float64{3, 4, 0}}, 2)
	if mv.Speed != 0 {
		t.Fatalf("speed without a processed baseline = %v, want 0", mv.Speed)
	}
	if math.Abs(mv.Acceleration-5) > 1e-9 {
		t.Fatalf("acceleration = %v, want 5", mv.Acceleration)
	}
}

func TestProcessor_Reset(t *testing.T) {
	p := NewProcessor(Options{WindowSize: 1})
	if _, err := p.Process(flat(90, 1)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	p.Reset()

	// With no previous sample the blend is skipped entirely.
	got, err := p.Process(flat(0, 2))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if math.Abs(got.Heading) > 1e-9 {
		t.Fatalf("heading after reset = %v, want 0", got.Heading)
	}
}
