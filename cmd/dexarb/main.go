package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"

	"dexarb/internal/arbitrage"
	"dexarb/internal/config"
	"dexarb/internal/database"
	"dexarb/internal/logger"
	"dexarb/internal/venue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, ".")
	stop()
	if err != nil {
		log.Printf("dexarb: %v", err)
		os.Exit(1)
	}
}

// run wires every component from the config.toml found in configDir and
// blocks until ctx is cancelled. Any error returned happens before the
// sampling loop starts.
func run(ctx context.Context, configDir string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("cannot build logger: %w", err)
	}
	logg.Info("Config loaded", "config", fmt.Sprintf("%+v", cfg.Redacted()))

	routerABI, err := venue.LoadRouterABI(cfg.ABIPath)
	if err != nil {
		return err
	}
	logg.Info("ABI loaded", "path", cfg.ABIPath)

	repo, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logg.Error("Failed to close database", "error", err)
		}
	}()
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	logg.Info("Database connected", "driver", cfg.Database.Driver)

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial rpc: %w", err)
	}
	defer client.Close()

	venues, err := venue.NewClients(logg, cfg.Venues, routerABI, client, cfg.Settings.QuoteTimeout)
	if err != nil {
		return err
	}
	logg.Info("Venue contracts ready", "venues", len(venues))

	engine := arbitrage.NewArbitrageEngine(logg, repo, venues, &cfg)
	return engine.Run(ctx)
}
