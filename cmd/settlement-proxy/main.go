package main

import (
	"context"
	"errors"
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
	"github.com/feral-file/ff-marketplace/internal/config"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/journal"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/messaging"
	"github.com/feral-file/ff-marketplace/internal/notifier"
	js "github.com/feral-file/ff-marketplace/internal/providers/jetstream"
	"github.com/feral-file/ff-marketplace/internal/ratelimit"
	"github.com/feral-file/ff-marketplace/internal/settlement"
	"github.com/feral-file/ff-marketplace/internal/signature"
	"github.com/feral-file/ff-marketplace/internal/store"
	"github.com/feral-file/ff-marketplace/internal/target"
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
	cfg, err := config.LoadSettlementProxyConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "settlement-proxy",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Settlement Proxy")

	if cfg.Self == "" {
		logger.FatalCtx(ctx, "self is required")
	}
	if cfg.ValueLedger.URL == "" {
		logger.FatalCtx(ctx, "value_ledger.url is required")
	}
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
	natsJS := adapter.NewNatsJetStream()
	streamCfg := js.Config{
		URL:             cfg.NATS.URL,
		StreamName:      cfg.NATS.StreamName,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		DuplicateWindow: cfg.NATS.DuplicateWindow,
	}

	// Event stream is optional
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = js.NewPublisher(ctx, streamCfg, natsJS, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, events and queued notify requests are disabled")
	}

	jrnl := journal.New(journal.Config{
		Service:          store.ServiceSettlement,
		PublishWorkers:   cfg.Journal.PublishWorkers,
		PublishQueueSize: cfg.Journal.PublishQueueSize,
	}, dataStore, publisher, clock, jsonAdapter)
	defer jrnl.Close()

	// Value ledger client, reads are retried with exponential backoff
	ledgerHTTP := adapter.NewHTTPClientWithBackOff(cfg.ValueLedger.Timeout, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ValueLedger.MaxRetries)
	})
	ledger := valueledger.NewClient(cfg.ValueLedger.URL, cfg.ValueLedger.APIKey, ledgerHTTP, jsonAdapter)

	signer := signature.NewSigner(cfg.Signature.Secret, adapter.NewJCS(), clock)
	targetClient := target.NewClient(adapter.NewHTTPClient(cfg.Target.Timeout), jsonAdapter, signer)

	proxyCfg := settlement.Config{
		Self:            domain.Principal(cfg.Self),
		TargetPrincipal: domain.Principal(cfg.Target.Principal),
		TargetURL:       cfg.Target.URL,
		MarketFeeBP:     cfg.MarketFeeBP,
	}

	// Settings changed through the admin API win over the config file
	var saved settlement.Config
	found, err := dataStore.GetSetting(ctx, store.KeySettlementConfig, &saved)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load settlement settings", zap.Error(err))
	}
	if found {
		saved.Self = proxyCfg.Self
		proxyCfg = saved
		logger.InfoCtx(ctx, "Loaded settlement settings", zap.Any("config", proxyCfg))
	}
	if proxyCfg.TargetURL == "" {
		logger.WarnCtx(ctx, "Target not configured, notify requests fail until it is set")
	}

	proxy, err := settlement.NewProxy(proxyCfg, ledger, targetClient, jrnl, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create settlement proxy", zap.Error(err))
	}

	// Restore persisted state
	snapshot, err := jrnl.LoadSettlement(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load settlement state", zap.Error(err))
	}
	proxy.Restore(snapshot)
	logger.InfoCtx(ctx, "Settlement state restored",
		zap.Int("processed", len(snapshot.Processed)),
		zap.Int("payments", len(snapshot.Payments)),
		zap.Int("notifications", len(snapshot.Notifications)),
		zap.String("account", proxy.Account().String()),
	)

	// Rate limiter, shared through redis when configured
	var redisClient adapter.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	limiter, err := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}, redisClient)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
	}
	defer func() {
		if err := limiter.Close(); err != nil {
			logger.Error(err)
		}
	}()

	errCh := make(chan error, 2)

	// Notify requests queued on the event stream
	if cfg.NATS.URL != "" {
		consumer, err := notifier.NewNotifier(ctx, notifier.Config{
			Config:         streamCfg,
			ConsumerName:   cfg.NATS.ConsumerName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		}, natsJS, proxy, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create notify consumer", zap.Error(err))
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("notify consumer stopped: %w", err)
			}
		}()
	}

	handler := rest.NewSettlementHandler(proxy, dataStore)
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
		rest.SetupSettlementRoutes(router, handler, authCfg, limiter)
	})

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
		logger.ErrorCtx(ctx, err)
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.Info("Settlement proxy stopped")
}
