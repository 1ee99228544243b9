package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/bombprop/go/internal/config"
	"github.com/mcdev12/bombprop/go/internal/console"
	"github.com/mcdev12/bombprop/go/internal/game/device"
	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/game/input"
	"github.com/mcdev12/bombprop/go/internal/gateway"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()

	// Feedback sinks
	fanout := feedback.NewFanout(ctx, feedback.NewLogSink(cfg.EventLevel()))
	var notices []string
	if cfg.Sounds.Enabled {
		audio, err := feedback.NewAudioSink(cfg.AudioConfig(), clock)
		if err != nil {
			log.Warn().Err(err).Msg("continuing without sound")
			notices = append(notices, "SD error")
		} else {
			fanout.Add(audio)
		}
	}
	if natsCfg := cfg.NATSConfig(); natsCfg.URL != "" {
		nc, err := feedback.ConnectNATS(natsCfg)
		if err != nil {
			log.Warn().Err(err).Str("url", natsCfg.URL).Msg("scoreboard bus unavailable")
		} else {
			defer nc.Drain()
			fanout.Add(feedback.NewNATSSink(nc, natsCfg.SubjectPrefix))
			log.Info().Str("url", natsCfg.URL).Str("prefix", natsCfg.SubjectPrefix).Msg("publishing to scoreboard bus")
		}
	}

	// Game core
	eng := engine.New(clock, fanout, cfg.EngineOptions())
	normalizer := input.NewNormalizer(clock, cfg.Device.InputQueue, cfg.Device.ButtonDebounce)
	runner := device.NewRunner(clock, eng, normalizer, cfg.Device.PollInterval)

	// spectators must be subscribed before boot so they see the menu and notices
	spectators := gateway.NewService(gateway.DefaultHubConfig(), runner)
	fanout.Add(spectators)
	go spectators.Start(ctx)
	for _, msg := range notices {
		runner.Announce(msg)
	}

	keypad, closeKeypad, err := openKeypad(cfg.Device.SerialPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Device.SerialPath).Msg("failed to open keypad")
	}
	defer closeKeypad()
	go func() {
		if err := normalizer.ReadFrom(ctx, keypad); err != nil {
			log.Error().Err(err).Msg("keypad reader stopped")
		}
	}()

	server := setupServer(cfg.Server.Addr, runner, spectators)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("device server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("device server failed")
		}
	}()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	log.Info().
		Dur("poll_interval", cfg.Device.PollInterval).
		Bool("require_defuse_code", cfg.Device.RequireDefuseCode).
		Msg("bomb prop started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			log.Info().Msg("SIGHUP received, resetting round")
			runner.RequestReset()
			continue
		}
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		break
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("device server shutdown failed")
	}

	cancel()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("poll loop did not stop in time")
	}
	log.Info().Msg("bomb prop shutdown complete")
}

func setupServer(addr string, runner *device.Runner, spectators *gateway.Service) *http.Server {
	mux := http.NewServeMux()

	mux.Handle(console.NewHandler(
		console.NewService(runner),
		connect.WithInterceptors(console.LoggingInterceptor()),
	))
	spectators.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}

// openKeypad returns the serial device, or stdin when no path is set.
func openKeypad(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
