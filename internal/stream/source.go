// Package stream provides GPS fix sources: a deterministic mock
// generator, an NMEA serial reader, a CSV replay source and an HTTP
// polling source.
package stream

import (
	"fmt"
	"time"

	"github.com/nikkhilaaryan/gps-modulator/internal/config"
	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

// FixSource yields GPS fixes one at a time. Next blocks until a fix is
// available and returns io.EOF when the stream is exhausted.
type FixSource interface {
	Next() (gps.Fix, error)
	Close() error
}

// New builds the fix source selected by GPS_SOURCE.
func New(cfg *config.Config) (FixSource, error) {
	switch cfg.GPSSource {
	case "mock":
		return NewMock(MockOptions{
			Interval:  time.Duration(cfg.SampleInterval) * time.Millisecond,
			SpoofRate: cfg.MockSpoofRate,
		}), nil
	case "serial":
		return OpenSerial(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
	case "file":
		return OpenFile(cfg.GPSFile)
	case "http":
		return NewHTTP(cfg.GPSHTTPURL, time.Duration(cfg.GPSHTTPPollInterval)*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown GPS source %q", cfg.GPSSource)
	}
}
