package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nikkhilaaryan/gps-modulator/internal/config"
	"github.com/nikkhilaaryan/gps-modulator/internal/correct"
	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

// RunConsole subscribes to the modulator's MQTT topics and prints both
// streams until interrupted.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to the corrected track
	corrToken := client.Subscribe(cfg.TopicCorrected, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p correct.CorrectedPoint
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: corrected point unmarshal error: %v", err)
			return
		}

		flag := " "
		if p.Spoofed {
			flag = "!"
		}
		fmt.Printf(
			"[CORR]%s lat=%10.6f lon=%11.6f conf=%.1f method=%s source=%s\n",
			flag, p.Latitude, p.Longitude, p.Confidence, p.Method, p.Source,
		)
	})
	corrToken.Wait()
	if corrToken.Error() != nil {
		return corrToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCorrected)

	// Subscribe to raw fixes when a topic is configured
	if cfg.TopicRawFix != "" {
		rawToken := client.Subscribe(cfg.TopicRawFix, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var f gps.Fix
			if err := json.Unmarshal(msg.Payload(), &f); err != nil {
				log.Printf("console: raw fix unmarshal error: %v", err)
				return
			}

			speed := "-"
			if f.Speed != nil {
				speed = fmt.Sprintf("%.1fm/s", *f.Speed)
			}
			fmt.Printf(
				"[RAW ]  lat=%10.6f lon=%11.6f ts=%.0f speed=%s\n",
				f.Latitude, f.Longitude, f.Timestamp, speed,
			)
		})
		rawToken.Wait()
		if rawToken.Error() != nil {
			return rawToken.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicRawFix)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
