// Package main is a command line client for the audio device service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-audiodevices/internal/config"
	"github.com/edumarques81/stellar-audiodevices/internal/domain/devices"
	"github.com/edumarques81/stellar-audiodevices/internal/infra/api"
	"github.com/edumarques81/stellar-audiodevices/internal/version"
)

const usage = `usage: audioctl [-config file] [-url base] [-debug] <command> [args]

commands:
  devices                               print the current snapshot
  watch                                 follow live updates until interrupted
  volume  <source|sink> <index> <level> set a device volume
  mute    <source|sink> <index> <bool>  set a device mute flag
  profile <card> <profile>              switch a card profile (name or code)
  default <source|sink> <index> <name>  make a device the default
  request [-X method] [-text] [-d body] <path|url>
                                        send a raw request
`

var errUsage = errors.New("invalid usage")

// configureLogging is replaced in tests, which share the global logger.
var configureLogging = setupLogging

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	client *api.Client
	svc    *devices.Service
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("audioctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to YAML config file (optional)")
	baseURL := fs.String("url", "", "Service base URL (overrides endpoint settings)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Endpoint.URL = *baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	configureLogging(stderr, cfg.LogLevel(), *debug)

	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	client := api.NewClient(cfg.Endpoint.BaseURL(), api.WithUserAgent(version.GetInfo().UserAgent()))
	a := &app{
		cfg:    cfg,
		client: client,
		svc:    devices.NewService(client, devices.NewStore()),
		out:    stdout,
	}

	log.Debug().Str("endpoint", client.BaseURL()).Str("command", rest[0]).Msg("Running command")

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "devices":
		return a.listDevices(ctx)
	case "watch":
		return a.watch(ctx)
	case "volume":
		return a.volume(ctx, cmdArgs)
	case "mute":
		return a.mute(ctx, cmdArgs)
	case "profile":
		return a.profile(ctx, cmdArgs)
	case "default":
		return a.setDefault(ctx, cmdArgs)
	case "request":
		return a.request(ctx, cmdArgs)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func setupLogging(w io.Writer, level zerolog.Level, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}
