package feedback

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// AudioConfig maps cues to files played through an external player command.
type AudioConfig struct {
	Dir    string
	Player string // e.g. "aplay -q"; the file path is appended
	Cues   map[Cue]string
}

// DefaultCueFiles is the stock sound pack layout.
func DefaultCueFiles() map[Cue]string {
	return map[Cue]string{
		CueBoot:          "enemydown-15db.wav",
		CueKeyPress:      "nvg_off-15db.wav",
		CueRejected:      "denied-15db.wav",
		CueWrongCode:     "wrongcode-15db.wav",
		CueBeep:          "beep-4186hz.wav",
		CuePlantStart:    "c4_plant-15db.wav",
		CueBombPlanted:   "bombpl-15db.wav",
		CueDefuseStart:   "c4_disarm-15db.wav",
		CueDefuseSuccess: "c4_disarmed-15db.wav",
		CueExplosion:     "c4_explode1-5db.wav",
		CueBombDefused:   "bombdef-15db.wav",
		CueCounterWin:    "ctwin-15.wav",
		CueTerroristWin:  "terwin-15.wav",
	}
}

// AudioSink plays PlaySound cues. Delayed cues are scheduled on the clock so
// the poll loop never sleeps. A ShowMenu event cancels every delayed cue that
// has not played yet.
type AudioSink struct {
	dir   string
	argv  []string
	cues  map[Cue]string
	clock clockwork.Clock
	start func(argv []string) error

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]clockwork.Timer
}

// NewAudioSink checks the sound directory and player. Any failure is wrapped
// in ErrAudioUnavailable so the caller can continue without sound.
func NewAudioSink(cfg AudioConfig, clock clockwork.Clock) (*AudioSink, error) {
	argv, err := shlex.Split(cfg.Player)
	if err != nil {
		return nil, fmt.Errorf("%w: parse player command: %v", ErrAudioUnavailable, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty player command", ErrAudioUnavailable)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrAudioUnavailable, cfg.Dir)
	}
	return newAudioSink(cfg.Dir, argv, cfg.Cues, clock, startDetached), nil
}

func newAudioSink(dir string, argv []string, cues map[Cue]string, clock clockwork.Clock, start func([]string) error) *AudioSink {
	return &AudioSink{
		dir:     dir,
		argv:    argv,
		cues:    cues,
		clock:   clock,
		start:   start,
		pending: make(map[uint64]clockwork.Timer),
	}
}

func (s *AudioSink) Name() string { return "audio" }

// Resolve returns the file path for a cue.
func (s *AudioSink) Resolve(cue Cue) (string, error) {
	file, ok := s.cues[cue]
	if !ok || file == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownCue, cue)
	}
	return filepath.Join(s.dir, file), nil
}

func (s *AudioSink) Publish(_ context.Context, ev Event) error {
	if ev.Type == EventTypeShowMenu {
		s.cancelPending()
		return nil
	}
	p, ok := ev.Payload.(SoundPayload)
	if !ok {
		return nil
	}
	path, err := s.Resolve(p.Cue)
	if err != nil {
		// tone-off and other unmapped cues are silent on file playback
		log.Debug().Str("cue", string(p.Cue)).Msg("no sound file for cue")
		return nil
	}
	if p.After > 0 {
		s.schedule(p.Cue, path, p.After)
		return nil
	}
	return s.play(path)
}

// Pending returns how many delayed cues are waiting to play.
func (s *AudioSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *AudioSink) schedule(cue Cue, path string, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.pending[id] = s.clock.AfterFunc(after, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if !live {
			return
		}
		if err := s.play(path); err != nil {
			log.Warn().Err(err).Str("cue", string(cue)).Msg("delayed cue failed")
		}
	})
}

func (s *AudioSink) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

func (s *AudioSink) play(path string) error {
	argv := append(append([]string(nil), s.argv...), path)
	if err := s.start(argv); err != nil {
		return fmt.Errorf("play %s: %w", filepath.Base(path), err)
	}
	return nil
}

func startDetached(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("player", argv[0]).Msg("player exited with error")
		}
	}()
	return nil
}
