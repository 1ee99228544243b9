package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
)

// ErrBroadcastFull is returned when the broadcast queue cannot take an event.
var ErrBroadcastFull = errors.New("broadcast queue full")

// StateSyncType tags the snapshot message sent to a screen on connect.
const StateSyncType = "StateSync"

// HubConfig tunes the spectator sockets.
type HubConfig struct {
	WriteWait    time.Duration
	PongWait     time.Duration
	PingEvery    time.Duration
	ReadLimit    int64
	QueueLen     int // per spectator
	BroadcastLen int
	CheckOrigin  func(r *http.Request) bool
}

// DefaultHubConfig returns settings suited to screens on the field LAN.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteWait:    10 * time.Second,
		PongWait:     60 * time.Second,
		PingEvery:    30 * time.Second,
		ReadLimit:    512,
		QueueLen:     64,
		BroadcastLen: 256,
		CheckOrigin:  func(*http.Request) bool { return true },
	}
}

// Hub keeps the set of spectator screens and copies every feedback event to
// each of them. Spectators only listen; nothing they send reaches the game.
type Hub struct {
	cfg      HubConfig
	state    StateProvider
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	spectators map[*spectator]struct{}

	events chan []byte
}

type spectator struct {
	id    string
	ws    *websocket.Conn
	queue chan []byte
	since time.Time
}

// NewHub creates a hub that greets new screens with the provider's snapshot.
func NewHub(cfg HubConfig, state StateProvider) *Hub {
	return &Hub{
		cfg:   cfg,
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		spectators: make(map[*spectator]struct{}),
		events:     make(chan []byte, cfg.BroadcastLen),
	}
}

// Run copies queued events to spectators until ctx ends, then hangs up on all.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, s := range h.list() {
				h.drop(s)
			}
			log.Info().Msg("spectator hub stopped")
			return
		case msg := <-h.events:
			for _, s := range h.deliver(msg) {
				log.Warn().Str("spectator", s.id).Msg("spectator too slow, disconnecting")
				h.drop(s)
			}
		}
	}
}

// Broadcast queues ev for every spectator without blocking.
func (h *Hub) Broadcast(ev feedback.Event) error {
	msg, err := feedback.Encode(ev)
	if err != nil {
		return err
	}
	select {
	case h.events <- msg:
		return nil
	default:
		return ErrBroadcastFull
	}
}

// Join upgrades r to a websocket and registers it as a spectator. The first
// message the screen receives is a StateSync with the current snapshot.
func (h *Hub) Join(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	s := &spectator{
		id:    uuid.NewString(),
		ws:    ws,
		queue: make(chan []byte, h.cfg.QueueLen),
		since: time.Now(),
	}
	greeting, err := h.stateSync()
	if err != nil {
		log.Error().Err(err).Msg("failed to build state sync")
	} else {
		s.queue <- greeting
	}

	h.mu.Lock()
	h.spectators[s] = struct{}{}
	total := len(h.spectators)
	h.mu.Unlock()

	go h.send(s)
	go h.listen(s)

	log.Info().Str("spectator", s.id).Str("remote", r.RemoteAddr).Int("total", total).Msg("spectator joined")
	return nil
}

// Count returns the number of connected spectators.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

func (h *Hub) list() []*spectator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*spectator, 0, len(h.spectators))
	for s := range h.spectators {
		out = append(out, s)
	}
	return out
}

// deliver queues msg for every spectator and returns the ones whose queue was
// full. Holding the read lock keeps drop from closing a queue mid-send.
func (h *Hub) deliver(msg []byte) []*spectator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var slow []*spectator
	for s := range h.spectators {
		select {
		case s.queue <- msg:
		default:
			slow = append(slow, s)
		}
	}
	return slow
}

// drop is safe to call from any of the spectator's goroutines.
func (h *Hub) drop(s *spectator) {
	h.mu.Lock()
	_, ok := h.spectators[s]
	delete(h.spectators, s)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(s.queue)
	log.Info().Str("spectator", s.id).Dur("watched", time.Since(s.since)).Msg("spectator left")
}

func (h *Hub) send(s *spectator) {
	ping := time.NewTicker(h.cfg.PingEvery)
	defer func() {
		ping.Stop()
		s.ws.Close()
		h.drop(s)
	}()

	for {
		select {
		case msg, ok := <-s.queue:
			s.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				s.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("spectator", s.id).Msg("write failed")
				return
			}
		case <-ping.C:
			s.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// listen discards inbound frames; reading is what keeps pongs flowing.
func (h *Hub) listen(s *spectator) {
	defer func() {
		h.drop(s)
		s.ws.Close()
	}()

	s.ws.SetReadLimit(h.cfg.ReadLimit)
	s.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("spectator", s.id).Msg("unexpected close")
			}
			return
		}
	}
}

func (h *Hub) stateSync() ([]byte, error) {
	return json.Marshal(struct {
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
		Data      any       `json:"data"`
	}{StateSyncType, time.Now(), h.state.Snapshot()})
}
