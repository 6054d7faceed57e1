package stream

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

const knotsToMetersPerSecond = 0.514444

// Serial reads NMEA sentences from a GPS receiver on a serial port and
// yields one fix per valid RMC sentence.
type Serial struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// OpenSerial opens the GPS serial port.
func OpenSerial(portName string, baudRate uint) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPS serial port %s: %w", portName, err)
	}
	return &Serial{port: port, reader: bufio.NewReader(port)}, nil
}

// Next blocks until the receiver produces a valid RMC sentence and
// returns it as a fix. Unparseable lines and other sentence types are
// skipped silently; a read error ends the stream.
func (s *Serial) Next() (gps.Fix, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return gps.Fix{}, err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			continue
		}

		speed := m.Speed * knotsToMetersPerSecond
		return gps.Fix{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Timestamp: rmcTimestamp(m),
			Speed:     &speed,
		}, nil
	}
}

// rmcTimestamp converts the RMC date and time fields to Unix seconds.
// RMC dates carry a two-digit year.
func rmcTimestamp(m nmea.RMC) float64 {
	t := time.Date(
		2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond),
		time.UTC,
	)
	return float64(t.UnixNano()) / float64(time.Second)
}

func (s *Serial) Close() error { return s.port.Close() }
