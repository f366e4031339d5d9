package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"highway/internal/config"
	"highway/internal/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		// Running without a signing key would mean unverifiable sessions.
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	s := server.NewServer(cfg)

	done := make(chan bool, 1)

	go s.GracefulShutdown(done)

	err = s.Start()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
