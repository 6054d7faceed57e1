package stream

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

// File replays GPS fixes from a CSV file. The header row selects the
// columns; latitude/longitude/timestamp are required and accept the
// short aliases lat, lon and ts. Altitude and speed are optional.
type File struct {
	f      *os.File
	r      *csv.Reader
	lat    int
	lon    int
	ts     int
	alt    int
	speed  int
	lineNo int
}

// OpenFile opens a CSV track for replay.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read track header: %w", err)
	}

	src := &File{f: f, r: r, lat: -1, lon: -1, ts: -1, alt: -1, speed: -1, lineNo: 1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "latitude", "lat":
			src.lat = i
		case "longitude", "lon":
			src.lon = i
		case "timestamp", "ts":
			src.ts = i
		case "altitude":
			src.alt = i
		case "speed":
			src.speed = i
		}
	}
	if src.lat < 0 || src.lon < 0 || src.ts < 0 {
		f.Close()
		return nil, fmt.Errorf("track header %v missing latitude, longitude or timestamp", header)
	}
	return src, nil
}

// Next returns the next fix from the file, or io.EOF at the end.
func (s *File) Next() (gps.Fix, error) {
	record, err := s.r.Read()
	if err != nil {
		return gps.Fix{}, err
	}
	s.lineNo++

	lat, err := s.field(record, s.lat)
	if err != nil {
		return gps.Fix{}, err
	}
	lon, err := s.field(record, s.lon)
	if err != nil {
		return gps.Fix{}, err
	}
	ts, err := s.field(record, s.ts)
	if err != nil {
		return gps.Fix{}, err
	}

	fix := gps.Fix{Latitude: lat, Longitude: lon, Timestamp: ts}
	if s.alt >= 0 && s.alt < len(record) && record[s.alt] != "" {
		alt, err := s.field(record, s.alt)
		if err != nil {
			return gps.Fix{}, err
		}
		fix.Altitude = &alt
	}
	if s.speed >= 0 && s.speed < len(record) && record[s.speed] != "" {
		speed, err := s.field(record, s.speed)
		if err != nil {
			return gps.Fix{}, err
		}
		fix.Speed = &speed
	}
	return fix, nil
}

func (s *File) field(record []string, idx int) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("track line %d: missing column %d", s.lineNo, idx)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("track line %d: %w", s.lineNo, err)
	}
	return v, nil
}

func (s *File) Close() error { return s.f.Close() }
