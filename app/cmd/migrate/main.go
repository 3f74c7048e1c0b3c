package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"keycloak-gateway/app/config"
	"keycloak-gateway/app/utils/logger"
	"keycloak-gateway/app/utils/migration"
)

//go:embed migrations
var migrationsFS embed.FS

func main() {
	var (
		command = flag.String("command", "up", "Migration command (up, status)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if *verbose {
		logLevel = "debug"
	}
	appLogger, err := logger.New(logLevel)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := migration.Open(ctx, cfg.DatabaseDSN())
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		appLogger.Error("Failed to open embedded migrations", "error", err)
		os.Exit(1)
	}
	migrator := migration.NewMigrator(db, appLogger, sub)

	switch *command {
	case "up":
		err = migrator.Up(ctx)
	case "status":
		err = migrator.Status(ctx)
	default:
		appLogger.Error("Unknown command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		appLogger.Error("Migration failed", "command", *command, "error", err)
		os.Exit(1)
	}

	appLogger.Info("Migration command completed", "command", *command)
}
