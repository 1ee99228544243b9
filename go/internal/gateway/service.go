package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
)

// Service fans device feedback out to spectator screens. It is a
// feedback.Sink, so the engine reaches it through the same Fanout as the
// speaker and the log.
type Service struct {
	hub      *Hub
	handlers *handlers
}

func NewService(cfg HubConfig, state StateProvider) *Service {
	hub := NewHub(cfg, state)
	return &Service{
		hub:      hub,
		handlers: &handlers{state: state, hub: hub, startedAt: time.Now()},
	}
}

// Start runs the hub until ctx ends.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting spectator gateway")
	s.hub.Run(ctx)
}

// RegisterRoutes mounts /ws, /state and /health.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handlers.spectate)
	mux.HandleFunc("/state", s.handlers.snapshot)
	mux.HandleFunc("/health", s.handlers.health)
}

func (s *Service) Name() string { return "gateway" }

// Publish never blocks the poll loop; a full queue drops the event.
func (s *Service) Publish(_ context.Context, ev feedback.Event) error {
	return s.hub.Broadcast(ev)
}

func (s *Service) Spectators() int { return s.hub.Count() }
