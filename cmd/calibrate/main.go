package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nikkhilaaryan/gps-modulator/internal/app"
	"github.com/nikkhilaaryan/gps-modulator/internal/config"
	"github.com/nikkhilaaryan/gps-modulator/internal/stream"
)

func main() {
	configPath := flag.String("config", "modulator_config.txt", "Path to configuration file")
	count := flag.Int("samples", 200, "Number of stationary samples to capture")
	output := flag.String("output", "modulator_calibration.json", "Output file for the bias profile")
	flag.Parse()

	fmt.Println("=== IMU bias calibration ===")
	fmt.Println("Place the device on a stable surface and do not touch it.")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The mock IMU is the only sample source wired today; a hardware feed
	// slots in behind the same interface. Capture at a best-effort 100 Hz.
	source := stream.NewMockIMU(stream.NewMock(stream.MockOptions{Speed: 0}))

	if err := app.RunCalibrate(source, *count, 10*time.Millisecond, *output); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
