package app

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/nikkhilaaryan/gps-modulator/internal/config"
	"github.com/nikkhilaaryan/gps-modulator/internal/correct"
)

// maxTrackPoints bounds the in-memory track history used for rendering.
const maxTrackPoints = 2000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// trackState holds the latest corrected point and a bounded history for
// the PNG renderer, shared between the MQTT callback and HTTP handlers.
type trackState struct {
	mu     sync.RWMutex
	last   correct.CorrectedPoint
	have   bool
	points []correct.CorrectedPoint
}

func (s *trackState) add(p correct.CorrectedPoint) {
	s.mu.Lock()
	s.last = p
	s.have = true
	s.points = append(s.points, p)
	if len(s.points) > maxTrackPoints {
		s.points = s.points[len(s.points)-maxTrackPoints:]
	}
	s.mu.Unlock()
}

// wsHub fans corrected points out to connected websocket clients.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// RunWeb subscribes to the corrected track and serves it over HTTP: a
// JSON position endpoint, a rendered PNG snapshot and a websocket feed.
func RunWeb() error {
	cfg := config.Get()

	state := &trackState{}
	hub := newWSHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the corrected track and update state on each message
	token := client.Subscribe(cfg.TopicCorrected, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p correct.CorrectedPoint
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		state.add(p)
		hub.broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicCorrected)

	// 3) JSON API endpoint: latest corrected position
	http.HandleFunc("/api/position", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.have {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.last); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Rendered track snapshot
	http.HandleFunc("/api/track.png", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		points := make([]correct.CorrectedPoint, len(state.points))
		copy(points, state.points)
		state.mu.RUnlock()

		img := renderTrack(points)
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			log.Printf("web: png encode error: %v", err)
		}
	})

	// 5) Websocket feed of corrected points
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)

		// Push the latest point immediately so a new client is not blank
		// until the next fix.
		state.mu.RLock()
		if state.have {
			if payload, err := json.Marshal(state.last); err == nil {
				conn.WriteMessage(websocket.TextMessage, payload)
			}
		}
		state.mu.RUnlock()
	})

	// 6) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
