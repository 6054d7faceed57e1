package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDModulator string
	MQTTClientIDConsole   string
	MQTTClientIDWeb       string

	// Topics
	TopicCorrected string
	TopicRawFix    string

	// GPS source: "mock", "serial", "file" or "http"
	GPSSource           string
	GPSSerialPort       string
	GPSBaudRate         int
	GPSFile             string
	GPSHTTPURL          string
	GPSHTTPPollInterval int // milliseconds

	// Detection and correction
	VelocityThreshold   float64 // m/s
	MagneticDeclination float64 // degrees, added to magnetic heading
	FilterAlpha         float64 // complementary filter gyro weight, 0 means library default
	HeadingWindow       int     // heading smoothing window, 0 means library default
	IMUCorrection       bool
	CalibrationFile     string // optional JSON bias profile

	// Mock source
	MockSpoofRate float64 // probability per fix of an injected jump

	// Timing
	SampleInterval int // milliseconds

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_MODULATOR":
		c.MQTTClientIDModulator = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_CORRECTED":
		c.TopicCorrected = value
	case "TOPIC_RAW_FIX":
		c.TopicRawFix = value

	// GPS source
	case "GPS_SOURCE":
		switch value {
		case "mock", "serial", "file", "http":
			c.GPSSource = value
		default:
			return fmt.Errorf("GPS_SOURCE must be mock, serial, file or http, got %q", value)
		}
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_FILE":
		c.GPSFile = value
	case "GPS_HTTP_URL":
		c.GPSHTTPURL = value
	case "GPS_HTTP_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_HTTP_POLL_INTERVAL %q: %w", value, err)
		}
		c.GPSHTTPPollInterval = interval

	// Detection and correction
	case "VELOCITY_THRESHOLD":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid VELOCITY_THRESHOLD %q: %w", value, err)
		}
		if threshold <= 0 {
			return fmt.Errorf("VELOCITY_THRESHOLD must be positive, got %v", threshold)
		}
		c.VelocityThreshold = threshold
	case "MAGNETIC_DECLINATION":
		decl, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MAGNETIC_DECLINATION %q: %w", value, err)
		}
		c.MagneticDeclination = decl
	case "FILTER_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_ALPHA %q: %w", value, err)
		}
		if alpha < 0 || alpha > 1 {
			return fmt.Errorf("FILTER_ALPHA must be within [0, 1], got %v", alpha)
		}
		c.FilterAlpha = alpha
	case "HEADING_WINDOW":
		window, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HEADING_WINDOW %q: %w", value, err)
		}
		if window < 1 {
			return fmt.Errorf("HEADING_WINDOW must be at least 1, got %d", window)
		}
		c.HeadingWindow = window
	case "IMU_CORRECTION":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_CORRECTION %q: %w", value, err)
		}
		c.IMUCorrection = enabled
	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	// Mock source
	case "MOCK_SPOOF_RATE":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_SPOOF_RATE %q: %w", value, err)
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("MOCK_SPOOF_RATE must be within [0, 1], got %v", rate)
		}
		c.MockSpoofRate = rate

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicCorrected == "" {
		return fmt.Errorf("TOPIC_CORRECTED is required")
	}
	if c.GPSSource == "" {
		return fmt.Errorf("GPS_SOURCE is required")
	}
	switch c.GPSSource {
	case "serial":
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_SOURCE=serial")
		}
		if c.GPSBaudRate == 0 {
			return fmt.Errorf("GPS_BAUD_RATE is required when GPS_SOURCE=serial")
		}
	case "file":
		if c.GPSFile == "" {
			return fmt.Errorf("GPS_FILE is required when GPS_SOURCE=file")
		}
	case "http":
		if c.GPSHTTPURL == "" {
			return fmt.Errorf("GPS_HTTP_URL is required when GPS_SOURCE=http")
		}
		if c.GPSHTTPPollInterval == 0 {
			return fmt.Errorf("GPS_HTTP_POLL_INTERVAL is required when GPS_SOURCE=http")
		}
	}
	if c.VelocityThreshold == 0 {
		return fmt.Errorf("VELOCITY_THRESHOLD is required")
	}
	if c.SampleInterval == 0 {
		return fmt.Errorf("SAMPLE_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
