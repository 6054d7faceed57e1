package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nikkhilaaryan/gps-modulator/internal/config"
	"github.com/nikkhilaaryan/gps-modulator/internal/correct"
	"github.com/nikkhilaaryan/gps-modulator/internal/detect"
	"github.com/nikkhilaaryan/gps-modulator/internal/imu"
	"github.com/nikkhilaaryan/gps-modulator/internal/stream"
	"github.com/nikkhilaaryan/gps-modulator/internal/validate"
)

// RunModulator reads fixes from the configured source, runs them through
// the validation engine and publishes the corrected track to MQTT.
func RunModulator() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDModulator)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("modulator: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open the fix source ----
	source, err := stream.New(cfg)
	if err != nil {
		return err
	}
	defer source.Close()
	log.Printf("modulator: reading fixes from %s source", cfg.GPSSource)

	// ---- 3) Build the validation engine ----
	detector := detect.NewVelocityDetector(cfg.VelocityThreshold)
	corrector := correct.NewCorrector(nil)
	if cfg.IMUCorrection {
		imuOpts := imu.Options{
			DeclinationDeg: cfg.MagneticDeclination,
			Alpha:          cfg.FilterAlpha,
			WindowSize:     cfg.HeadingWindow,
		}
		if cfg.CalibrationFile != "" {
			cal, err := LoadCalibration(cfg.CalibrationFile)
			if err != nil {
				return err
			}
			imuOpts.Calibration = cal
			log.Printf("modulator: loaded calibration profile from %s", cfg.CalibrationFile)
		}
		corrector.EnableIMUCorrection(imuOpts)
		log.Println("modulator: IMU-enhanced correction enabled")
	}
	engine := validate.New(detector, corrector)

	// The mock source carries its own simulated motion, which stands in
	// for a real inertial feed.
	mock, _ := source.(*stream.Mock)

	// ---- 4) Main loop ----
	for {
		fix, err := source.Next()
		if errors.Is(err, io.EOF) {
			log.Println("modulator: fix source exhausted")
			return nil
		}
		if err != nil {
			return fmt.Errorf("fix source error: %w", err)
		}
		if !fix.Valid() {
			log.Printf("modulator: dropping out-of-range fix lat=%.6f lon=%.6f", fix.Latitude, fix.Longitude)
			continue
		}

		if cfg.TopicRawFix != "" {
			if payload, err := json.Marshal(fix); err == nil {
				client.Publish(cfg.TopicRawFix, 0, true, payload)
			}
		}

		var in correct.IMUInput
		if mock != nil {
			sample := mock.Sample()
			heading := mock.Heading()
			speed := mock.Speed()
			in = correct.IMUInput{Sample: &sample, Heading: &heading, Speed: &speed}
		}

		out := engine.Validate(fix, in)

		payload, err := json.Marshal(out)
		if err != nil {
			log.Printf("modulator: JSON marshal error: %v", err)
			continue
		}
		token := client.Publish(cfg.TopicCorrected, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("modulator: publish error: %v", token.Error())
			continue
		}

		if out.Spoofed {
			log.Printf("modulator: spoofed fix corrected via %s: lat=%.6f lon=%.6f conf=%.1f",
				out.Method, out.Latitude, out.Longitude, out.Confidence)
		}
	}
}

// LoadCalibration reads a JSON bias profile written by the calibration
// tool.
func LoadCalibration(path string) (imu.Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imu.Calibration{}, fmt.Errorf("failed to read calibration file: %w", err)
	}
	var cal imu.Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return imu.Calibration{}, fmt.Errorf("failed to parse calibration file: %w", err)
	}
	return cal, nil
}
