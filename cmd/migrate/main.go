package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/vetolabs/veto-backend/internal/infrastructure/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		action     = flag.String("action", "up", "migration action: up, down, version")
		steps      = flag.Int("steps", 0, "number of migrations to apply (0 = all)")
		dir        = flag.String("dir", "migrations", "migrations directory")
	)
	flag.Parse()

	if err := run(*configPath, *action, *steps, *dir); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, action string, steps int, dir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := migrate.New("file://"+dir, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("initializing migrator: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			return fmt.Errorf("reading version: %w", verr)
		}
		slog.Info("migration version", "version", version, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("migrations applied", "action", action)
	return nil
}
