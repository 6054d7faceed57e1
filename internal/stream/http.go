package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nikkhilaaryan/gps-modulator/internal/gps"
)

// HTTP polls a JSON endpoint for the latest fix. The endpoint returns a
// single fix object; long and short coordinate key forms are both
// accepted. A fix with the same timestamp as the previous one is treated
// as "no new data" and polling continues.
type HTTP struct {
	url      string
	interval time.Duration
	client   *http.Client
	lastTS   float64
	haveLast bool
}

// NewHTTP creates a polling fix source.
func NewHTTP(url string, interval time.Duration) *HTTP {
	return &HTTP{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Next polls until a fix with a new timestamp appears.
func (h *HTTP) Next() (gps.Fix, error) {
	for {
		fix, err := h.poll()
		if err != nil {
			return gps.Fix{}, err
		}
		if !h.haveLast || fix.Timestamp != h.lastTS {
			h.lastTS = fix.Timestamp
			h.haveLast = true
			return fix, nil
		}
		time.Sleep(h.interval)
	}
}

func (h *HTTP) poll() (gps.Fix, error) {
	resp, err := h.client.Get(h.url)
	if err != nil {
		return gps.Fix{}, fmt.Errorf("GPS endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gps.Fix{}, fmt.Errorf("GPS endpoint returned %s", resp.Status)
	}

	var fix gps.Fix
	if err := json.NewDecoder(resp.Body).Decode(&fix); err != nil {
		return gps.Fix{}, fmt.Errorf("GPS endpoint payload decode error: %w", err)
	}
	return fix, nil
}

func (h *HTTP) Close() error { return nil }
