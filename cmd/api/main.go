package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vetolabs/veto-backend/internal/api/rest"
	"github.com/vetolabs/veto-backend/internal/domain/audit"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/infrastructure/blockchain"
	"github.com/vetolabs/veto-backend/internal/infrastructure/cache"
	"github.com/vetolabs/veto-backend/internal/infrastructure/config"
	"github.com/vetolabs/veto-backend/internal/infrastructure/database"
	"github.com/vetolabs/veto-backend/internal/infrastructure/repository"
	"github.com/vetolabs/veto-backend/internal/infrastructure/telemetry"
	"github.com/vetolabs/veto-backend/internal/metrics"
	"github.com/vetolabs/veto-backend/internal/service/risk"
	"github.com/vetolabs/veto-backend/internal/service/transfer"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "veto-api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	slog.SetDefault(logger)

	zapLogger, err := telemetry.SetupZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up service logger: %w", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProvider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "veto-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	conn, err := database.Connect(ctx, cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	registry, err := metrics.NewRegistry("veto-api")
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}

	escrowAddr, err := values.NewAddress(cfg.Vault.EscrowAddress)
	if err != nil {
		return fmt.Errorf("invalid escrow address: %w", err)
	}

	node := blockchain.NewClient(cfg.Profiles.Endpoint, cfg.Profiles.Timeout, zapLogger)
	store := repository.NewVaultRepository(conn.DB)
	auditLog := audit.NewLog()

	manager, err := vaultsvc.NewManager(ctx, store, node, escrowAddr, auditLog, zapLogger, registry)
	if err != nil {
		return fmt.Errorf("creating vault manager: %w", err)
	}

	history := cache.NewHistoryStore(redisClient, zapLogger)
	scorer := risk.NewScorer()
	orchestrator := transfer.NewOrchestrator(scorer, node, node, history, manager, zapLogger, registry)

	handler := rest.NewHandler(orchestrator, manager, logger, conn.Health)
	server := rest.NewServer(cfg.Server, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
