// Package imu turns raw 9-axis inertial samples into calibrated heading,
// pitch and roll, and derives secondary motion estimates for dead
// reckoning.
package imu

// Sample represents a single raw IMU+mag reading.
type Sample struct {
	Ax float64 `json:"ax"` // accel, m/s²
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro, deg/s
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	Mx float64 `json:"mx"` // magnetometer, arbitrary units
	My float64 `json:"my"`
	Mz float64 `json:"mz"`

	Timestamp float64 `json:"timestamp"` // monotonic seconds
}

// SampleSource is anything that can provide raw IMU samples over time:
// a serial sensor feed, a replay file, a mock generator.
type SampleSource interface {
	Next() (Sample, error)
}

// Calibration holds per-axis bias offsets subtracted from every raw
// sample. Immutable once applied except through explicit recalibration.
type Calibration struct {
	AccelBias [3]float64 `json:"accel_bias"`
	GyroBias  [3]float64 `json:"gyro_bias"`
	MagBias   [3]float64 `json:"mag_bias"`
}

// Calibrate derives a bias profile by averaging a batch of stationary
// samples per channel. An empty batch yields the zero profile.
func Calibrate(samples []Sample) Calibration {
	var c Calibration
	if len(samples) == 0 {
		return c
	}
	for _, s := range samples {
		c.AccelBias[0] += s.Ax
		c.AccelBias[1] += s.Ay
		c.AccelBias[2] += s.Az
		c.GyroBias[0] += s.Gx
		c.GyroBias[1] += s.Gy
		c.GyroBias[2] += s.Gz
		c.MagBias[0] += s.Mx
		c.MagBias[1] += s.My
		c.MagBias[2] += s.Mz
	}
	n := float64(len(samples))
	for i := 0; i < 3; i++ {
		c.AccelBias[i] /= n
		c.GyroBias[i] /= n
		c.MagBias[i] /= n
	}
	return c
}
