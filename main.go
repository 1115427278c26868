package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"worklog/config"
	"worklog/database"
	"worklog/handlers"
	"worklog/ledger"
	"worklog/middleware"
	"worklog/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Load()

	middleware.Configure(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemory()
		log.Warn().Msg("using in-memory store; data will not survive a restart")
	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize database")
		}
		st = store.NewGorm(db)
	}

	if err := database.SeedDefaultAdmin(context.Background(), st, log); err != nil {
		log.Fatal().Err(err).Msg("seed default admin")
	}

	l := ledger.New(st, st, st, nil)
	router := handlers.Router(cfg, st, l)

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
