package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nikkhilaaryan/gps-modulator/internal/imu"
)

// RunCalibrate captures a batch of stationary samples, averages them
// into a per-axis bias profile and writes the profile as JSON. The
// device must stay still for the whole capture.
func RunCalibrate(source imu.SampleSource, count int, interval time.Duration, output string) error {
	fmt.Printf("Collecting %d stationary samples, keep the device still...\n", count)

	samples := make([]imu.Sample, 0, count)
	for i := 0; i < count; i++ {
		s, err := source.Next()
		if err != nil {
			return fmt.Errorf("sample capture failed at %d/%d: %w", i+1, count, err)
		}
		samples = append(samples, s)
		if (i+1)%50 == 0 {
			fmt.Printf("  %d/%d\n", i+1, count)
		}
		time.Sleep(interval)
	}

	cal := imu.Calibrate(samples)

	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration profile: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}

	fmt.Println("\nCalibration complete.")
	fmt.Printf("Accel bias: X=%.4f Y=%.4f Z=%.4f\n", cal.AccelBias[0], cal.AccelBias[1], cal.AccelBias[2])
	fmt.Printf("Gyro bias:  X=%.4f Y=%.4f Z=%.4f\n", cal.GyroBias[0], cal.GyroBias[1], cal.GyroBias[2])
	fmt.Printf("Mag bias:   X=%.4f Y=%.4f Z=%.4f\n", cal.MagBias[0], cal.MagBias[1], cal.MagBias[2])
	fmt.Printf("Saved to %s\n", output)
	return nil
}
