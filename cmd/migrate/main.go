package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/verdantmarket/cartsync/pkg/config"
	"github.com/verdantmarket/cartsync/pkg/db"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/migrate"
)

// Usage: migrate <command> [args].
//
// `create <name>` and `validate` operate on the migrations directory without a
// database; every other command (`up`, `down`, `status`, ...) is passed through
// to goose against the configured database.
func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	if len(os.Args) < 2 {
		logg.Error(ctx, "missing migrate command", nil)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "create":
		if len(args) != 1 {
			logg.Error(ctx, "create requires exactly one migration name", nil)
			os.Exit(2)
		}
		path, err := migrate.CreateSQLMigration(migrate.DefaultDir, args[0])
		if err != nil {
			logg.Error(ctx, "failed to create migration", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		if err := migrate.ValidateDir(migrate.DefaultDir); err != nil {
			logg.Error(ctx, "migration validation failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrations validated")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "extracting sql.DB", err)
		os.Exit(1)
	}

	if err := migrate.Run(ctx, sqlDB, migrate.DefaultDir, command, args...); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "command", command), "migration command completed")
}
