package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/console"
	"github.com/mcdev12/bombprop/go/internal/game/input"
)

const usage = `commands:
  keys <keys>              queue keypad keys, e.g. keys "2 1#5#1#10#"
  hold <plant|defuse|both> hold buttons down
  release                  release both buttons
  reset                    abort the round and return to the menu
  state                    print the device snapshot`

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	addr := flag.String("addr", getEnv("BOMB_CONSOLE_URL", "http://localhost:8080"), "device base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "per-call timeout")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-addr URL] [command args...]\n%s\n", os.Args[0], usage)
	}
	flag.Parse()

	client := console.NewClient(&http.Client{Timeout: *timeout}, *addr)
	ctx := context.Background()

	if flag.NArg() > 0 {
		if err := run(ctx, client, flag.Args()); err != nil {
			log.Fatal().Err(err).Msg("console command failed")
		}
		return
	}

	// interactive: one command per line
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			log.Error().Err(err).Msg("could not parse line")
			continue
		}
		if len(args) == 0 {
			continue
		}
		if err := run(ctx, client, args); err != nil {
			log.Error().Err(err).Strs("args", args).Msg("command failed")
		}
	}
}

func run(ctx context.Context, client *console.Client, args []string) error {
	switch args[0] {
	case "keys":
		if len(args) < 2 {
			return errors.New("keys needs an argument")
		}
		n, err := client.SendKeys(ctx, strings.Join(args[1:], ""))
		if err != nil {
			return err
		}
		log.Info().Int("accepted", n).Msg("keys queued")
	case "hold":
		if len(args) != 2 {
			return errors.New("hold needs plant, defuse or both")
		}
		var state input.ButtonState
		switch args[1] {
		case "plant":
			state.Plant = true
		case "defuse":
			state.Defuse = true
		case "both":
			state = input.ButtonState{Plant: true, Defuse: true}
		default:
			return fmt.Errorf("unknown button %q", args[1])
		}
		return client.SetButtons(ctx, state)
	case "release":
		return client.SetButtons(ctx, input.ButtonState{})
	case "reset":
		return client.Reset(ctx)
	case "state":
		snap, err := client.GetState(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
