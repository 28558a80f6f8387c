package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lubixbot/internal/bootstrap"
	"lubixbot/internal/config"
	"lubixbot/internal/engine"
	"lubixbot/internal/logging"
	"lubixbot/internal/render"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
	"lubixbot/internal/telegram"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	os.Exit(serve(cfg, logger))
}

// serve runs the bot and flushes logger before returning the exit code.
func serve(cfg config.Config, logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()
	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gw, err := bootstrap.Gateway(cfg, logger)
	if err != nil {
		return err
	}

	store := session.NewStore(session.WithStartingCash(decimal.NewFromFloat(cfg.Simulator.StartingCash)))
	sim := simulator.New(store, gw, logger.Named("simulator"))
	sim.Notional = decimal.NewFromFloat(cfg.Simulator.OrderNotional)

	tg, err := telegram.New(cfg.Bot.Token, logger.Named("telegram"))
	if err != nil {
		return err
	}
	tg.HandleTimeout = time.Duration(cfg.Bot.HandleTimeoutSec) * time.Second
	tg.MaxInFlight = cfg.Bot.MaxInFlight

	eng := engine.New(store, gw, sim, tg, engine.Config{
		AdminID:              cfg.Bot.AdminID,
		RestrictGroups:       cfg.Bot.RestrictGroups,
		BroadcastConcurrency: cfg.Bot.BroadcastWorkers,
		BroadcastTimeout:     time.Duration(cfg.Bot.BroadcastTimeoutSec) * time.Second,
		MarketSymbols:        cfg.Display.MarketSymbols,
	}, logger.Named("engine"))
	tg.Attach(eng, render.New(cfg.Display.IDRRate, cfg.Bot.AdminContact))

	if cfg.Bot.AdminID == 0 {
		logger.Warn("ADMIN_CHAT_ID not set; admin panel disabled")
	}
	logger.Info("bot starting",
		zap.Int("crypto_sources", len(gw.Crypto)),
		zap.Bool("restrict_groups", cfg.Bot.RestrictGroups),
	)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eng.StopBroadcastsOn(ctx)
	return tg.Start(ctx)
}
