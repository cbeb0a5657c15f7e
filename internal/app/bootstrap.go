package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ferdiebergado/goexpress"
	"github.com/ferdiebergado/gopherkit/env"
	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/middleware"
	"github.com/ferdiebergado/ragchat/internal/pkg/logging"
	"github.com/ferdiebergado/ragchat/internal/platform/db"
	"github.com/ferdiebergado/ragchat/internal/platform/telemetry"
)

const (
	envAppEnv     = "APP_ENV"
	envConfigFile = "CONFIG_FILE"
	defaultConfig = "config.json"
)

// LoadConfig reads .env outside production, then the config file named by
// CONFIG_FILE (config.json by default), and installs the logger.
func LoadConfig() (*config.Config, error) {
	if os.Getenv(envAppEnv) != "production" {
		if err := env.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}

	cfgFile := os.Getenv(envConfigFile)
	if cfgFile == "" {
		cfgFile = defaultConfig
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logging.SetupLogger(cfg.App.Env, cfg.App.LogLevel, os.Stdout)
	return cfg, nil
}

func Run(baseCtx context.Context) error {
	slog.Info("Initializing...")

	signalCtx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(signalCtx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("Failed to flush traces.", "reason", err)
		}
	}()

	dbConn, err := db.NewPostgresDB(signalCtx, cfg.DB)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.Migrate(signalCtx, dbConn); err != nil {
		return err
	}

	provider, err := NewProvider(signalCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			slog.Error("Failed to release resources.", "reason", err)
		}
	}()

	middlewares := []func(http.Handler) http.Handler{
		middleware.InjectWriter,
		goexpress.RecoverFromPanic,
		middleware.LogRequest,
		middleware.Metrics(provider.Metrics),
		middleware.CORS(cfg.Server.AllowedOrigin),
		middleware.CheckContentType,
	}
	api := New(cfg, dbConn, provider, middlewares)
	if err := api.Start(signalCtx); err != nil {
		return err
	}

	return api.Shutdown()
}
