package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/config"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mapping"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
	"github.com/giftvault/escrow-indexer/internal/providers/jetstream"
	"github.com/giftvault/escrow-indexer/internal/ratelimit"
	"github.com/giftvault/escrow-indexer/internal/receipt"
	"github.com/giftvault/escrow-indexer/internal/reconciler"
	"github.com/giftvault/escrow-indexer/internal/store"
	"github.com/giftvault/escrow-indexer/internal/validator"

	ext "github.com/giftvault/escrow-indexer/internal/extractor"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcilerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "reconciler",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Reconciler")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize audit journal store
	journal := store.NewPGStore(db)

	// Connect to Redis
	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Ping(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.ErrorCtx(ctx, err)
		}
	}()
	logger.InfoCtx(ctx, "Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Connect to the Ethereum RPC endpoint
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Ethereum RPC", zap.Error(err))
	}
	defer ethClient.Close()

	// Initialize escrow contract reader
	escrowClient, err := escrow.NewClient(cfg.Chain.EscrowContract, ethClient, cfg.Chain.CallTimeout)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize escrow client", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to escrow contract",
		zap.String("contract", cfg.Chain.EscrowContract),
		zap.Int64("chain_id", cfg.Chain.ChainID),
	)

	// Connect to NATS JetStream for mapping event notifications
	publisher, err := jetstream.NewPublisher(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, adapter.NewNatsJetStream(), jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("stream", cfg.NATS.StreamName))

	// Wire the reconciliation pipeline
	mappingStore := mapping.NewStore(redisClient, jsonAdapter, clock, cfg.Mapping.AllowLegacyNumeric)
	missCache := mapping.NewMissCache(clock, cfg.Mapping.MissCacheTTL)
	throttle := ratelimit.NewThrottle(redisClient.NewRateLimiter(), cfg.Throttle.KeyPrefix, cfg.Throttle.PerWindow, cfg.Throttle.Window)
	normalizer := receipt.NewNormalizer(escrowClient, jsonAdapter)
	extractor := ext.NewExtractor(escrowClient, clock, cfg.Chain.LogChunkDelay)
	v := validator.NewValidator(escrowClient, clock)

	service := reconciler.NewService(
		reconciler.Config{
			ChainID:          cfg.Chain.ChainID,
			NFTContract:      cfg.Chain.NFTContract,
			ScanStartBlock:   cfg.Chain.ScanStartBlock,
			SweepConcurrency: cfg.Sweep.Concurrency,
			SweepBatchSize:   cfg.Sweep.BatchSize,
			InterBatchWait:   cfg.Sweep.InterBatchWait,
		},
		normalizer,
		extractor,
		mappingStore,
		missCache,
		v,
		escrowClient,
		throttle,
		publisher,
		journal,
		clock,
	)

	sweeper := reconciler.NewSweeper(&reconciler.SweeperConfig{
		Window:        cfg.Sweep.Window,
		CycleInterval: cfg.Sweep.CycleInterval,
	}, service, journal, clock)

	logger.InfoCtx(ctx, "Initialized mapping sweeper",
		zap.Uint64("window", cfg.Sweep.Window),
		zap.Int("concurrency", cfg.Sweep.Concurrency),
		zap.Duration("cycle_interval", cfg.Sweep.CycleInterval),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := sweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	case <-publisher.CloseChan():
		logger.WarnCtx(ctx, "NATS publisher closed, shutting down")
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Reconciler stopped")
}
