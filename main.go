package main

import (
	"io"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"medtrack/m/internal/api"
	"medtrack/m/internal/config"
	"medtrack/m/internal/database"
	"medtrack/m/internal/migrations"
	"medtrack/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	var out io.Writer = os.Stdout
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	logger := zerolog.New(out).With().Timestamp().Str("app", "medtrack").Logger()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	migrations.Run(db)
	if cfg.SeedCSV != "" {
		seed.LoadMedications(db, cfg.SeedCSV, logger)
	}

	handler := api.New(db, logger)

	logger.Info().Str("port", cfg.HTTPPort).Msg("medication tracker listening")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
