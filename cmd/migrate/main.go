package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"knowyourclient/internal/pkg/logger"
	"knowyourclient/internal/platform/config"
	"knowyourclient/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	dir := flag.String("dir", "", "Migration directory (defaults to database.migrations_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging, "migrate")

	migrationsDir := cfg.Database.MigrationsDir
	if *dir != "" {
		migrationsDir = *dir
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db, migrationsDir); err != nil {
		log.Fatal().Err(err).Str("dir", migrationsDir).Msg("migration failed")
	}

	log.Info().Str("dir", migrationsDir).Msg("migration completed successfully")
}
