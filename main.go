package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/letterdash/go-server/internal/board"
	"github.com/letterdash/go-server/internal/coordinator"
	"github.com/letterdash/go-server/internal/dict"
	"github.com/letterdash/go-server/internal/history"
	"github.com/letterdash/go-server/internal/httpserver"
	"github.com/letterdash/go-server/internal/session"
	"github.com/letterdash/go-server/internal/ws"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// Dictionary loads before the server accepts answers; the coordinator
	// still checks readiness per answer, so a future async load stays safe.
	d := dict.New()
	if err := d.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionary")
	}
	log.Info().Int("words", d.Size()).Msg("dictionary loaded")

	db, err := openDB(getEnv("SQLITE_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	registry := session.NewRegistry()
	hub := ws.NewHub()
	matches := history.NewStore(db)
	boards := board.New(rand.NewSource(time.Now().UnixNano()))
	coord := coordinator.New(registry, d, boards, hub, matches)

	srv := httpserver.New(db, d, hub, coord, matches)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting letterdash server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
