package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/feedback"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the device configuration.
type Config struct {
	Device struct {
		PollInterval      time.Duration `yaml:"poll_interval"`
		CountdownSeconds  int           `yaml:"countdown_seconds"`
		MaxInputDigits    int           `yaml:"max_input_digits"`
		RequireDefuseCode bool          `yaml:"require_defuse_code"`
		ButtonDebounce    time.Duration `yaml:"button_debounce"`
		BeepToneLength    time.Duration `yaml:"beep_tone_length"`
		BlinkInterval     time.Duration `yaml:"blink_interval"`
		SerialPath        string        `yaml:"serial_path"`
		InputQueue        int           `yaml:"input_queue"`
	} `yaml:"device"`

	Sounds struct {
		Enabled bool              `yaml:"enabled"`
		Dir     string            `yaml:"dir"`
		Player  string            `yaml:"player"`
		Cues    map[string]string `yaml:"cues"`
	} `yaml:"sounds"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Events string `yaml:"events"` // level of the feedback event log
	} `yaml:"log"`
}

// Default returns the stock configuration.
func Default() *Config {
	opts := engine.DefaultOptions()
	c := &Config{}
	c.Device.PollInterval = 10 * time.Millisecond
	c.Device.CountdownSeconds = int(opts.CountdownDuration / time.Second)
	c.Device.MaxInputDigits = opts.MaxInputDigits
	c.Device.ButtonDebounce = 30 * time.Millisecond
	c.Device.BeepToneLength = opts.BeepToneLength
	c.Device.BlinkInterval = opts.BlinkInterval
	c.Device.InputQueue = 16
	c.Sounds.Enabled = true
	c.Sounds.Dir = "sounds"
	c.Sounds.Player = "aplay -q"
	c.Server.Addr = ":8080"
	c.NATS.SubjectPrefix = feedback.DefaultNATSConfig().SubjectPrefix
	c.Log.Level = "info"
	c.Log.Events = "info"
	return c
}

// Load reads defaults, then the YAML file at path (if non-empty), then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Device.PollInterval = getEnvAsDuration("BOMB_POLL_INTERVAL", c.Device.PollInterval)
	c.Device.CountdownSeconds = getEnvAsInt("BOMB_COUNTDOWN_SECONDS", c.Device.CountdownSeconds)
	c.Device.RequireDefuseCode = getEnvAsBool("BOMB_REQUIRE_DEFUSE_CODE", c.Device.RequireDefuseCode)
	c.Device.SerialPath = getEnv("BOMB_SERIAL_PATH", c.Device.SerialPath)
	c.Sounds.Enabled = getEnvAsBool("BOMB_SOUNDS_ENABLED", c.Sounds.Enabled)
	c.Sounds.Dir = getEnv("BOMB_SOUNDS_DIR", c.Sounds.Dir)
	c.Sounds.Player = getEnv("BOMB_SOUND_PLAYER", c.Sounds.Player)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.Server.Addr = getEnv("BOMB_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Events = getEnv("LOG_EVENTS_LEVEL", c.Log.Events)
}

// Validate checks ranges the engine depends on.
func (c *Config) Validate() error {
	var problems []string
	if c.Device.PollInterval <= 0 {
		problems = append(problems, "device.poll_interval must be positive")
	}
	if c.Device.CountdownSeconds < 0 {
		problems = append(problems, "device.countdown_seconds must not be negative")
	}
	if c.Device.MaxInputDigits <= 0 {
		problems = append(problems, "device.max_input_digits must be positive")
	}
	if c.Device.ButtonDebounce < 0 {
		problems = append(problems, "device.button_debounce must not be negative")
	}
	if c.Device.BlinkInterval <= 0 || c.Device.BeepToneLength <= 0 {
		problems = append(problems, "device.blink_interval and device.beep_tone_length must be positive")
	}
	if c.Sounds.Enabled && strings.TrimSpace(c.Sounds.Player) == "" {
		problems = append(problems, "sounds.player is required when sounds are enabled")
	}
	for cue := range c.Sounds.Cues {
		if !feedback.KnownCue(feedback.Cue(cue)) {
			problems = append(problems, fmt.Sprintf("sounds.cues: unknown cue %q", cue))
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Events); err != nil || c.Log.Events == "" {
		problems = append(problems, fmt.Sprintf("log.events: unknown level %q", c.Log.Events))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// EngineOptions maps device settings onto the engine.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		CountdownDuration: time.Duration(c.Device.CountdownSeconds) * time.Second,
		MaxInputDigits:    c.Device.MaxInputDigits,
		RequireDefuseCode: c.Device.RequireDefuseCode,
		BeepToneLength:    c.Device.BeepToneLength,
		BlinkInterval:     c.Device.BlinkInterval,
	}
}

// EventLevel is the level the log sink writes feedback events at.
func (c *Config) EventLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Events)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// AudioConfig merges cue overrides onto the stock sound pack.
func (c *Config) AudioConfig() feedback.AudioConfig {
	cues := feedback.DefaultCueFiles()
	for cue, file := range c.Sounds.Cues {
		cues[feedback.Cue(cue)] = file
	}
	return feedback.AudioConfig{Dir: c.Sounds.Dir, Player: c.Sounds.Player, Cues: cues}
}

// NATSConfig returns bus settings; an empty URL disables the NATS sink.
func (c *Config) NATSConfig() feedback.NATSConfig {
	cfg := feedback.DefaultNATSConfig()
	cfg.URL = c.NATS.URL
	cfg.SubjectPrefix = c.NATS.SubjectPrefix
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
