package main

import (
	"flag"
	"log"

	"github.com/nikkhilaaryan/gps-modulator/internal/app"
	"github.com/nikkhilaaryan/gps-modulator/internal/config"
)

func main() {
	configPath := flag.String("config", "modulator_config.txt", "Path to configuration file")
	flag.Parse()

	log.Println("starting gps-modulator (fix validation and correction)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunModulator(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
