package detect

import (
	"testing"

	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

func TestVelocityDetector_FirstFixNeverAnomalous(t *testing.T) {
	d := NewVelocityDetector(50)
	// Even an absurd position cannot be evaluated without a baseline.
	if d.Detect(gps.Fix{Latitude: 89, Longitude: 179, Timestamp: 1}) {
		t.Fatal("first fix flagged as anomalous")
	}
}

func TestVelocityDetector_Detect(t *testing.T) {
	prev := gps.Fix{Latitude: 37.7749, Longitude: -122.4194, Timestamp: 1000}

	tests := []struct {
		name string
		curr gps.Fix
		want bool
	}{
		{
			// ~1.4 km in one second, far beyond 50 m/s.
			"teleport jump",
			gps.Fix{Latitude: 37.7849, Longitude: -122.4094, Timestamp: 1001},
			true,
		},
		{
			// ~14 m in one second.
			"plausible step",
			gps.Fix{Latitude: 37.7750, Longitude: -122.4195, Timestamp: 1001},
			false,
		},
		{
			// Same coordinates as the teleport case but with no elapsed
			// time: degenerate dt yields zero velocity, not an anomaly.
			"zero elapsed time",
			gps.Fix{Latitude: 37.7849, Longitude: -122.4094, Timestamp: 1000},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewVelocityDetector(50)
			if d.Detect(prev) {
				t.Fatal("baseline fix flagged")
			}
			if got := d.Detect(tt.curr); got != tt.want {
				t.Fatalf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVelocityDetector_SpoofedFixBecomesBaseline(t *testing.T) {
	d := NewVelocityDetector(50)
	d.Detect(gps.Fix{Latitude: 37.7749, Longitude: -122.4194, Timestamp: 1000})

	spoofed := gps.Fix{Latitude: 37.8749, Longitude: -122.4194, Timestamp: 1001}
	if !d.Detect(spoofed) {
		t.Fatal("jump not flagged")
	}

	// The flagged fix replaced the baseline, so a small step away from it
	// is judged against the spoofed position and passes.
	near := gps.Fix{Latitude: 37.8750, Longitude: -122.4194, Timestamp: 1002}
	if d.Detect(near) {
		t.Fatal("step near the new baseline flagged")
	}
}

func TestVelocityDetector_Reset(t *testing.T) {
	d := NewVelocityDetector(50)
	d.Detect(gps.Fix{Latitude: 37.7749, Longitude: -122.4194, Timestamp: 1000})
	d.Reset()

	// After a reset the next fix is a fresh baseline, however far away.
	if d.Detect(gps.Fix{Latitude: -33.8688, Longitude: 151.2093, Timestamp: 1001}) {
		t.Fatal("first fix after reset flagged")
	}
}

func TestVelocityDetector_Threshold(t *testing.T) {
	d := NewVelocityDetector(50)
	if got := d.Threshold(); got != 50 {
		t.Fatalf("Threshold = %v, want 50", got)
	}
}
