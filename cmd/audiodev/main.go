// Package main runs the audio device service emulator.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-audiodevices/internal/config"
	"github.com/edumarques81/stellar-audiodevices/internal/transport/devserver"
	"github.com/edumarques81/stellar-audiodevices/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	listen := flag.String("listen", "", "Listen address (overrides server.listen)")
	debounce := flag.Duration("debounce", -1, "Broadcast debounce window (overrides server.debounce)")
	maxExternal := flag.Int("max-external", 0, "Max concurrent live connections from non-loopback peers (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *debounce >= 0 {
		cfg.Server.Debounce = *debounce
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.LogLevel())
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", version.GetInfo().String())
	log.Info().Msg("  Audio Device Service Emulator")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("listen", cfg.Server.Listen).
		Dur("debounce", cfg.Server.Debounce).
		Int("max_external", *maxExternal).
		Msg("Configuration")

	emulator := devserver.New(devserver.DemoSnapshot(),
		devserver.WithDebounce(cfg.Server.Debounce),
		devserver.WithMaxExternal(*maxExternal),
	)

	server := &http.Server{
		Addr:        cfg.Server.Listen,
		Handler:     emulator,
		ReadTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		emulator.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.Server.Listen).Msg("Listening on http")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
