// The releaser scans for escrow transactions whose unlock time has passed
// and releases them to their receivers. It runs alongside the API server
// and competes safely with manual releases through the store's atomic
// status transition.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vetolabs/veto-backend/internal/domain/audit"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/infrastructure/blockchain"
	"github.com/vetolabs/veto-backend/internal/infrastructure/config"
	"github.com/vetolabs/veto-backend/internal/infrastructure/database"
	"github.com/vetolabs/veto-backend/internal/infrastructure/repository"
	"github.com/vetolabs/veto-backend/internal/infrastructure/telemetry"
	"github.com/vetolabs/veto-backend/internal/metrics"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "veto-releaser: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close()

	registry, err := metrics.NewRegistry("veto-releaser")
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}

	escrowAddr, err := values.NewAddress(cfg.Vault.EscrowAddress)
	if err != nil {
		return fmt.Errorf("invalid escrow address: %w", err)
	}

	node := blockchain.NewClient(cfg.Profiles.Endpoint, cfg.Profiles.Timeout, logger)
	store := repository.NewVaultRepository(conn.DB)

	manager, err := vaultsvc.NewManager(ctx, store, node, escrowAddr, audit.NewLog(), logger, registry)
	if err != nil {
		return fmt.Errorf("creating vault manager: %w", err)
	}

	scheduler := vaultsvc.NewReleaseScheduler(manager, store, cfg.Vault.ReleaseScanInterval, escrowAddr, logger)
	return scheduler.Run(ctx)
}
