package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	infraprovider "github.com/fxpocket/fxpocket/infra/provider"
	infrastore "github.com/fxpocket/fxpocket/infra/store"
	"github.com/fxpocket/fxpocket/pkg/config"
	"github.com/fxpocket/fxpocket/pkg/currency"
	"github.com/fxpocket/fxpocket/pkg/repository"
	"github.com/fxpocket/fxpocket/pkg/service/conversion"
	"github.com/fxpocket/fxpocket/pkg/service/prefs"
	"github.com/fxpocket/fxpocket/pkg/store"
	"github.com/fxpocket/fxpocket/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := slog.Default()
	cfg, err := config.Load(logger)
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	st, closeStore, err := newStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store backend %q: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	source := infraprovider.NewFrankfurterClient(cfg.Source, logger)
	repo := repository.NewRatesRepository(source, st, logger)
	prefSvc := prefs.NewService(st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep the default pair warm for as long as auto-refresh is on.
	from := prefSvc.DefaultCurrency(ctx)
	to := currency.EUR
	if from == currency.EUR {
		to = currency.USD
	}
	state := conversion.NewState(repo, logger, from, to)
	state.StartAutoRefresh(ctx, cfg.Refresh.Interval, prefSvc)
	defer state.Close()

	app := webapi.New(webapi.Deps{
		Repo:   repo,
		Prefs:  prefSvc,
		Store:  st,
		Logger: logger,
	})

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr, "env", cfg.Env)
	return app.Listen(addr)
}

// newStore picks the store backend from config. The returned closer is a
// no-op for backends without connections to release.
func newStore(cfg *config.AppConfig, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		s, err := infrastore.NewRedisStoreFromURL(cfg.Store.RedisURL, cfg.Store.KeyPrefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Store.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, nil, err
		}
		s := infrastore.NewGormStore(db, logger)
		if err := s.AutoMigrate(); err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "memory":
		return infrastore.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
