package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/config"
	"github.com/Rrens/community-market/internal/logger"
	"github.com/Rrens/community-market/internal/repository"
	"github.com/Rrens/community-market/internal/repository/postgres"
	"github.com/Rrens/community-market/internal/service"
)

func main() {
	bootstrap := flag.Bool("bootstrap", false, "seed the default space and backfill memberships after migrating")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logger")
	}
	defer logCloser.Close()

	if cfg.Database.Driver == config.DriverPostgres {
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("source", cfg.Database.MigrationsPath).
			Msg("Applying migrations")

		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	}

	if !*bootstrap {
		return
	}

	// Open creates the sqlite and mysql tables itself
	cfg.Database.AutoMigrate = false

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	bootstrapper := service.NewBootstrapper(cfg.Bootstrap, store.Spaces, store.Members, store.Users, store.Listings)
	result, err := bootstrapper.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Bootstrap failed")
	}

	log.Info().
		Bool("owner_created", result.OwnerCreated).
		Bool("space_created", result.SpaceCreated).
		Int("memberships_added", result.MembershipsAdded).
		Int("defaults_assigned", result.DefaultsAssigned).
		Msg("Bootstrap finished")
}
