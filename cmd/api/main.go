package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/telcoforge/hlr-lookup-service/internal/api/rest"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
	"github.com/telcoforge/hlr-lookup-service/internal/provider/hlrlookups"
	"github.com/telcoforge/hlr-lookup-service/internal/provider/smsapi"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting hlr lookup service",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.String("provider", cfg.Lookup.Provider))

	store, err := cache.NewRedisStore(&cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer store.Close()

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("building provider client: %w", err)
	}

	svc, err := lookup.NewService(lookup.Options{
		Provider:        provider,
		Store:           store,
		Timeout:         cfg.Lookup.Timeout,
		ResultTTL:       cfg.Lookup.ResultTTL,
		CallbackURL:     cfg.Lookup.CallbackURL,
		CallbackIDParam: cfg.Lookup.CallbackIDParam,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("building lookup service: %w", err)
	}

	router := rest.NewRouter(cfg, svc, store, logger)
	server := rest.NewServer(cfg.Server, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newProvider(cfg *config.Config, logger *zap.Logger) (lookup.ProviderClient, error) {
	switch cfg.Lookup.Provider {
	case hlrlookups.ProviderName:
		client, err := hlrlookups.New(&cfg.Providers.HLRLookups, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case smsapi.ProviderName:
		client, err := smsapi.New(&cfg.Providers.SMSAPI, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown lookup provider %q", cfg.Lookup.Provider)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
