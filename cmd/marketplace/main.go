package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/api/middleware"
	"github.com/feral-file/ff-marketplace/internal/api/rest"
	"github.com/feral-file/ff-marketplace/internal/api/server"
	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/config"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/journal"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/marketplace"
	"github.com/feral-file/ff-marketplace/internal/messaging"
	"github.com/feral-file/ff-marketplace/internal/ownership"
	js "github.com/feral-file/ff-marketplace/internal/providers/jetstream"
	"github.com/feral-file/ff-marketplace/internal/signature"
	"github.com/feral-file/ff-marketplace/internal/store"
	"github.com/feral-file/ff-marketplace/internal/valueledger"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadMarketplaceConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "marketplace",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Marketplace")

	if cfg.Signature.Secret == "" {
		logger.FatalCtx(ctx, "signature.secret is required")
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Event stream is optional
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = js.NewPublisher(ctx, js.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, events will not be published")
	}

	jrnl := journal.New(journal.Config{
		Service:          store.ServiceMarketplace,
		PublishWorkers:   cfg.Journal.PublishWorkers,
		PublishQueueSize: cfg.Journal.PublishQueueSize,
	}, dataStore, publisher, clock, jsonAdapter)
	defer jrnl.Close()

	// Value ledger client, reads are retried with exponential backoff
	httpClient := adapter.NewHTTPClientWithBackOff(cfg.ValueLedger.Timeout, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ValueLedger.MaxRetries)
	})
	payer := valueledger.NewClient(cfg.ValueLedger.URL, cfg.ValueLedger.APIKey, httpClient, jsonAdapter)

	marketCfg := marketplace.Config{
		PayoutMode:     marketplace.PayoutMode(cfg.Market.PayoutMode),
		Transacting:    cfg.Market.Transacting,
		Notifier:       domain.Principal(cfg.Market.Notifier),
		CreatorAccount: domain.Principal(cfg.Market.CreatorAccount),
		CreatorFeeBP:   cfg.Market.CreatorFeeBP,
		MarketFeeBP:    cfg.Market.MarketFeeBP,
	}
	if marketCfg.PayoutMode == marketplace.PayoutModeDirect && cfg.ValueLedger.URL == "" {
		logger.FatalCtx(ctx, "value_ledger.url is required in direct payout mode")
	}

	// Settings changed through the admin API win over the config file
	var saved marketplace.Config
	found, err := dataStore.GetSetting(ctx, store.KeyMarketplaceConfig, &saved)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load marketplace settings", zap.Error(err))
	}
	if found {
		saved.PayoutMode = marketCfg.PayoutMode
		marketCfg = saved
		logger.InfoCtx(ctx, "Loaded marketplace settings", zap.Any("config", marketCfg))
	}

	admin := domain.Principal(cfg.Auth.AdminPrincipal)
	service, err := marketplace.NewService(
		ownership.Collection{
			Name:        cfg.Collection.Name,
			Symbol:      cfg.Collection.Symbol,
			Description: cfg.Collection.Description,
			MaxSupply:   cfg.Collection.MaxSupply,
		},
		marketCfg,
		audit.NewLedger(0, jrnl),
		payer,
		jrnl,
		clock,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create marketplace", zap.Error(err))
	}

	// Restore persisted state
	state, err := jrnl.LoadMarketplace(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load marketplace state", zap.Error(err))
	}
	if err := service.Replay(state.Records, state.Tokens); err != nil {
		logger.FatalCtx(ctx, "Failed to replay audit ledger", zap.Error(err))
	}
	service.RestorePayments(state.Payments)
	if len(state.Records) == 0 {
		if _, err := service.Genesis(ctx, admin); err != nil {
			logger.FatalCtx(ctx, "Failed to write init record", zap.Error(err))
		}
	}
	logger.InfoCtx(ctx, "Marketplace state restored",
		zap.Int("records", len(state.Records)),
		zap.Int("tokens", len(state.Tokens)),
		zap.Int("payments", len(state.Payments)),
	)

	signedAs := domain.Principal(cfg.Signature.Principal)
	if signedAs.IsZero() {
		signedAs = marketCfg.Notifier
	}
	verifier := signature.NewSigner(cfg.Signature.Secret, adapter.NewJCS(), clock)
	handler := rest.NewMarketplaceHandler(service, dataStore, admin)
	authCfg := middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	}

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}, func(router *gin.Engine) {
		rest.SetupMarketplaceRoutes(router, handler, authCfg, verifier, signedAs)
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.Info("Marketplace stopped")
}
