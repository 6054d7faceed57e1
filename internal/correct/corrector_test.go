package correct

import (
	"math"
	"testing"

	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
	"github.com/nikkhilaaryan/gps-modulator/internal/imu"
)

func f64(v float64) *float64 { return &v }

func fix(lat, lon, ts float64) gps.Fix {
	return gps.Fix{Latitude: lat, Longitude: lon, Timestamp: ts}
}

func TestCorrector_FirstFixTrusted(t *testing.T) {
	c := NewCorrector(nil)
	// Even a flagged first fix is accepted; there is nothing to reckon
	// from yet.
	got := c.Correct(fix(37.7749, -122.4194, 1000), true, IMUInput{})
	if got.Method != MethodTrusted {
		t.Fatalf("method = %q, want trusted", got.Method)
	}
	if got.Confidence != ConfidenceTrusted {
		t.Fatalf("confidence = %v, want 1.0", got.Confidence)
	}
	if lv := c.LastValid(); lv == nil || lv.Latitude != 37.7749 {
		t.Fatalf("last valid not recorded: %+v", lv)
	}
}

func TestCorrector_TrustedPassthrough(t *testing.T) {
	c := NewCorrector(nil)
	c.Correct(fix(37.7749, -122.4194, 1000), false, IMUInput{})

	in := fix(37.7750, -122.4195, 1001)
	got := c.Correct(in, false, IMUInput{})

	if got.Latitude != in.Latitude || got.Longitude != in.Longitude || got.Timestamp != in.Timestamp {
		t.Fatalf("trusted fix not passed through verbatim: %+v", got)
	}
	if got.Method != MethodTrusted || got.Source != SourceGNSS || got.Spoofed {
		t.Fatalf("trusted provenance wrong: %+v", got)
	}
	if lv := c.LastValid(); lv.Latitude != in.Latitude || lv.Timestamp != in.Timestamp {
		t.Fatalf("last valid not advanced: %+v", lv)
	}
}

func TestCorrector_PositionHold(t *testing.T) {
	c := NewCorrector(nil)
	c.Correct(fix(37.7749, -122.4194, 1000), false, IMUInput{})

	got := c.Correct(fix(38.7749, -122.4194, 1001), true, IMUInput{})
	if got.Method != MethodPositionHold {
		t.Fatalf("method = %q, want position_hold", got.Method)
	}
	if got.Confidence != ConfidencePositionHold {
		t.Fatalf("confidence = %v, want 0.3", got.Confidence)
	}
	if got.Latitude != 37.7749 || got.Longitude != -122.4194 {
		t.Fatalf("hold did not keep the last valid position: %+v", got)
	}
	if got.Timestamp != 1001 {
		t.Fatalf("timestamp not passed through: %v", got.Timestamp)
	}
	if got.Source != SourceFallback || !got.Spoofed {
		t.Fatalf("hold provenance wrong: %+v", got)
	}
	// Holding performs no dead reckoning, so the fallback machine stays
	// Inactive.
	if c.Manager().Active() {
		t.Fatal("position hold activated fallback")
	}
}

func TestCorrector_BasicDeadReckoning(t *testing.T) {
	c := NewCorrector(nil)
	c.Correct(fix(0, 0, 1000), false, IMUInput{})

	got := c.Correct(fix(5, 5, 1010), true, IMUInput{Heading: f64(90), Speed: f64(10)})
	if got.Method != MethodBasicDeadReckoning {
		t.Fatalf("method = %q, want basic_dead_reckoning", got.Method)
	}
	if got.Confidence != ConfidenceBasicDeadReckoning {
		t.Fatalf("confidence = %v, want 0.7", got.Confidence)
	}
	// 10 m/s due east for 10 s from the last valid position.
	wantLon := 100 / 6371000.0 * 180 / math.Pi
	if math.Abs(got.Longitude-wantLon) > 1e-9 {
		t.Fatalf("lon = %v, want %v", got.Longitude, wantLon)
	}
	if math.Abs(got.Latitude) > 1e-9 {
		t.Fatalf("lat = %v, want ~0", got.Latitude)
	}
	if !c.Manager().Active() {
		t.Fatal("dead reckoning did not activate fallback")
	}

	// A trusted fix afterwards deactivates fallback again.
	c.Correct(fix(0.001, 0.001, 1011), false, IMUInput{})
	if c.Manager().Active() {
		t.Fatal("trusted fix did not deactivate fallback")
	}
}

func TestCorrector_BasicDeadReckoning_Continuous(t *testing.T) {
	c := NewCorrector(nil)
	c.Correct(fix(0, 0, 1000), false, IMUInput{})

	in := IMUInput{Heading: f64(90), Speed: f64(10)}
	p1 := c.Correct(fix(5, 5, 1010), true, in)
	p2 := c.Correct(fix(6, 6, 1020), true, in)
	if p2.Longitude <= p1.Longitude {
		t.Fatalf("repeated anomalies should continue the track east: %v then %v", p1.Longitude, p2.Longitude)
	}
}

func TestCorrector_IMUEnhanced(t *testing.T) {
	c := NewCorrector(nil)
	c.EnableIMUCorrection(imu.Options{})
	c.Correct(fix(19.0760, 72.8777, 1000), false, IMUInput{})

	// A stationary sample: attitude processes cleanly, horizontal
	// acceleration is zero, so the estimate stays on the anchor but the
	// method reflects the calibrated path.
	sample := imu.Sample{Az: 9.81, Mx: 1, Timestamp: 1001}
	got := c.Correct(fix(20.5, 73.5, 1001), true, IMUInput{Sample: &sample})

	if got.Method != MethodIMUEnhanced {
		t.Fatalf("method = %q, want imu_enhanced", got.Method)
	}
	if got.Confidence != ConfidenceIMUEnhanced {
		t.Fatalf("confidence = %v, want 0.9", got.Confidence)
	}
	if math.Abs(got.Latitude-19.0760) > 1e-6 || math.Abs(got.Longitude-72.8777) > 1e-6 {
		t.Fatalf("stationary enhanced estimate moved: %+v", got)
	}
	if !c.Manager().Active() {
		t.Fatal("enhanced path did not activate fallback")
	}
}

func TestCorrector_IMUFailureDegradesToBasic(t *testing.T) {
	c := NewCorrector(nil)
	c.EnableIMUCorrection(imu.Options{})
	c.Correct(fix(0, 0, 1000), false, IMUInput{})

	// Zero-magnitude acceleration makes attitude undefined; with a raw
	// heading/speed pair present the call degrades instead of failing.
	bad := imu.Sample{Timestamp: 1010}
	got := c.Correct(fix(5, 5, 1010), true, IMUInput{Sample: &bad, Heading: f64(90), Speed: f64(10)})
	if got.Method != MethodBasicDeadReckoning {
		t.Fatalf("method = %q, want basic_dead_reckoning after IMU failure", got.Method)
	}
}

func TestCorrector_IMUFailureDegradesToHold(t *testing.T) {
	c := NewCorrector(nil)
	c.EnableIMUCorrection(imu.Options{})
	c.Correct(fix(0, 0, 1000), false, IMUInput{})

	bad := imu.Sample{Timestamp: 1010}
	got := c.Correct(fix(5, 5, 1010), true, IMUInput{Sample: &bad})
	if got.Method != MethodPositionHold {
		t.Fatalf("method = %q, want position_hold after IMU failure", got.Method)
	}
}

func TestCorrector_ZeroElapsedHoldsInsteadOfEnhancing(t *testing.T) {
	c := NewCorrector(nil)
	c.EnableIMUCorrection(imu.Options{})
	c.Correct(fix(0, 0, 1000), false, IMUInput{})

	sample := imu.Sample{Az: 9.81, Mx: 1, Timestamp: 1000}
	got := c.Correct(fix(5, 5, 1000), true, IMUInput{Sample: &sample})
	if got.Method != MethodPositionHold {
		t.Fatalf("method = %q, want position_hold with no elapsed time", got.Method)
	}
	if got.Latitude != 0 || got.Longitude != 0 {
		t.Fatalf("zero-dt correction moved: %+v", got)
	}
}

func TestCorrector_ConfidenceOrdering(t *testing.T) {
	if !(ConfidenceIMUEnhanced > ConfidenceBasicDeadReckoning &&
		ConfidenceBasicDeadReckoning > ConfidencePositionHold) {
		t.Fatal("confidence ordering violated")
	}
	if MethodIMUEnhanced.Confidence() <= MethodBasicDeadReckoning.Confidence() ||
		MethodBasicDeadReckoning.Confidence() <= MethodPositionHold.Confidence() {
		t.Fatal("Method.Confidence ordering violated")
	}
	if MethodTrusted.Confidence() != 1.0 {
		t.Fatalf("trusted confidence = %v, want 1.0", MethodTrusted.Confidence())
	}
}

func TestCorrector_Reset(t *testing.T) {
	c := NewCorrector(nil)
	c.Correct(fix(0, 0, 1000), false, IMUInput{})
	c.Correct(fix(5, 5, 1010), true, IMUInput{Heading: f64(90), Speed: f64(10)})

	c.Reset()
	if c.LastValid() != nil {
		t.Fatalf("last valid survived reset: %+v", c.LastValid())
	}
	if c.Manager().Active() {
		t.Fatal("fallback state survived reset")
	}
	// The first fix after a reset is trusted again.
	got := c.Correct(fix(50, 50, 2000), true, IMUInput{})
	if got.Method != MethodTrusted {
		t.Fatalf("method after reset = %q, want trusted", got.Method)
	}
}
