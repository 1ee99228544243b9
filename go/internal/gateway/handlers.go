package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
)

// StateProvider exposes the latest device snapshot.
type StateProvider interface {
	Snapshot() engine.Snapshot
}

type handlers struct {
	state     StateProvider
	hub       *Hub
	startedAt time.Time
}

// snapshot serves GET /state.
func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.state.Snapshot())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":     "ok",
		"phase":      h.state.Snapshot().Phase.String(),
		"spectators": h.hub.Count(),
		"uptime_sec": int(time.Since(h.startedAt).Seconds()),
	})
}

func (h *handlers) spectate(w http.ResponseWriter, r *http.Request) {
	// the upgrader has already replied when the handshake fails
	if err := h.hub.Join(w, r); err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("spectator handshake failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
