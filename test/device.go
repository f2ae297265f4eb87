package test

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/2beens/padcontrol/pkg"
)

// simulatedPad mimics the walking pad device API. Taking it offline makes
// every endpoint answer 503, as the device bridge does when bluetooth drops.
type simulatedPad struct {
	mutex    sync.Mutex
	online   bool
	mode     string
	belt     string
	speedRaw int
	steps    int
	seconds  int
	saved    int
}

func newSimulatedPad() *simulatedPad {
	return &simulatedPad{
		online: true,
		mode:   "standby",
		belt:   "idle",
	}
}

func (p *simulatedPad) SetOnline(online bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.online = online
}

func (p *simulatedPad) Saved() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.saved
}

func (p *simulatedPad) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.online {
		pkg.WriteJSON(w, map[string]string{"message": "device not connected"}, http.StatusServiceUnavailable)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api") {
	case "/device/status":
		if p.belt == "running" {
			p.steps += 3
			p.seconds++
		}
		pkg.WriteJSON(w, map[string]any{
			"mode":         p.mode,
			"belt_state":   p.belt,
			"speed":        p.speedRaw,
			"distance":     float64(p.steps) * 0.0007,
			"steps":        p.steps,
			"calories":     p.steps / 20,
			"time":         p.seconds,
			"is_connected": true,
		}, http.StatusOK)
	case "/device/start":
		p.belt = "running"
		p.speedRaw, _ = strconv.Atoi(r.URL.Query().Get("speed"))
		pkg.WriteJSON(w, "started", http.StatusOK)
	case "/device/stop":
		p.belt = "idle"
		p.speedRaw = 0
		pkg.WriteJSON(w, "stopped", http.StatusOK)
	case "/device/speed":
		p.speedRaw, _ = strconv.Atoi(r.URL.Query().Get("speed"))
		pkg.WriteJSON(w, "ok", http.StatusOK)
	case "/device/mode":
		p.mode = r.URL.Query().Get("mode")
		pkg.WriteJSON(w, "ok", http.StatusOK)
	case "/save":
		p.saved++
		pkg.WriteJSON(w, map[string]any{
			"message": "session saved",
			"data": map[string]any{
				"steps":    p.steps,
				"distance": float64(p.steps) * 0.0007,
				"duration": p.seconds,
			},
		}, http.StatusOK)
		p.steps, p.seconds = 0, 0
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}
