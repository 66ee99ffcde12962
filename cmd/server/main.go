package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lakiremit/checkout-service/internal/adapters/backend"
	"github.com/lakiremit/checkout-service/internal/adapters/browser"
	"github.com/lakiremit/checkout-service/internal/adapters/iplookup"
	kafkaAdapter "github.com/lakiremit/checkout-service/internal/adapters/kafka"
	"github.com/lakiremit/checkout-service/internal/adapters/logging"
	"github.com/lakiremit/checkout-service/internal/adapters/memory"
	postgresStore "github.com/lakiremit/checkout-service/internal/adapters/postgres"
	redisStore "github.com/lakiremit/checkout-service/internal/adapters/redis"
	"github.com/lakiremit/checkout-service/internal/challenge"
	"github.com/lakiremit/checkout-service/internal/config"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"github.com/lakiremit/checkout-service/internal/fingerprint"
	"github.com/lakiremit/checkout-service/internal/frames"
	checkoutHandler "github.com/lakiremit/checkout-service/internal/handlers/checkout"
	"github.com/lakiremit/checkout-service/internal/handlers/relay"
	checkoutService "github.com/lakiremit/checkout-service/internal/services/checkout"
	"github.com/lakiremit/checkout-service/internal/tokenizer"
	"github.com/lakiremit/checkout-service/pkg/observability"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"github.com/lakiremit/checkout-service/pkg/shutdown"
)

func main() {
	// .env is optional; deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("starting checkout service",
		zap.String("provider", cfg.PaymentProvider),
		zap.String("store", cfg.StoreBackend),
		zap.String("env", cfg.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secretManager, err := newSecretManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize secret backend", zap.Error(err))
	}

	backendToken := resolveSecret(ctx, secretManager, logger, os.Getenv("BACKEND_TOKEN_SECRET"), cfg.BackendToken)
	collectorOrgID := resolveSecret(ctx, secretManager, logger, os.Getenv("COLLECTOR_ORG_ID_SECRET"), cfg.CollectorOrgID)

	timeouts := resilience.DefaultTimeoutConfig()
	manager := shutdown.NewManager(logger, 15*time.Second)

	store, closeStore, err := initChallengeStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize challenge store", zap.Error(err))
	}
	manager.RegisterNoErr("challenge store", closeStore)

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafkaAdapter.NewPublisher(cfg.KafkaBrokers, logger)
		manager.RegisterCloser("event publisher", kafkaPublisher)
		publisher = kafkaPublisher
		logger.Info("event publishing enabled", zap.String("topic", cfg.KafkaTopic))
	}

	api := backend.NewClient(cfg.BackendBaseURL, backendToken, timeouts, logger)
	hub := browser.NewHub(logger)
	bus := frames.NewBus(frames.CollectorOrigins, frames.HostedFieldOrigins, logger)

	collector := fingerprint.NewCollector(hub, collectorOrgID, timeouts.DeviceCollection, logger)
	bus.StartListening(collector.HandleMessage)
	manager.RegisterNoErr("frame listener", bus.StopListening)

	cardTokenizer, err := tokenizer.New(cfg.PaymentProvider, tokenizer.Config{
		API:           api,
		Loader:        hub,
		Fields:        hub,
		TransactionID: cfg.TransactionID,
		GatewayHost:   cfg.GatewayHost,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to build tokenizer", zap.Error(err))
	}

	presenters := &presenterRegistry{}
	factory := func(challengeCtx *models.ChallengeContext) ports.ChallengePresenter {
		presenter := challenge.NewPresenter(hub, hub, cfg.AppOrigin, challengeCtx, timeouts.ChallengeResolution, logger)
		presenters.set(presenter)
		return presenter
	}

	session := checkoutService.NewSession(uuid.New().String())
	service := checkoutService.NewService(
		session,
		api,
		cardTokenizer,
		collector,
		factory,
		store,
		publisher,
		timeouts,
		checkoutService.Config{AppOrigin: cfg.AppOrigin, EventsTopic: cfg.KafkaTopic},
		logging.NewZapAdapter(logger),
	)
	manager.RegisterNoErr("vendor resources", service.Cleanup)

	router := relay.NewRouter(
		checkoutHandler.NewHandler(service, iplookup.NewClient(logger), logger),
		relay.NewChallengeResultHandler(cfg.AppOrigin, logger),
		relay.NewProcessingHandler(service, logger),
		relay.NewBrowserChannelHandler(hub, bus, cfg.AppOrigin, presenters.handleMessage, logger),
		timeouts,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsServer := observability.NewMetricsServer(cfg.MetricsPort, logger)
	manager.RegisterServer("metrics server", metricsServer)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	manager.RegisterServer("http server", httpServer)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	manager.Shutdown()
}

// presenterRegistry routes application-origin challenge messages to the
// presenter currently awaiting resolution. Superseded presenters drop their
// own late messages via the resolution latch.
type presenterRegistry struct {
	mu     sync.Mutex
	active *challenge.Presenter
}

func (r *presenterRegistry) set(p *challenge.Presenter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = p
}

func (r *presenterRegistry) handleMessage(origin string, message map[string]interface{}) {
	r.mu.Lock()
	presenter := r.active
	r.mu.Unlock()

	if presenter != nil {
		presenter.HandleFrameMessage(origin, message)
	}
}

// initChallengeStore builds the configured pending-challenge store and
// returns its close function.
func initChallengeStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.ChallengeStore, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return redisStore.NewChallengeStore(client, cfg.RedisTTL, logger), func() { client.Close() }, nil

	case "postgres":
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(pingCtx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create connection pool: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		return postgresStore.NewChallengeStore(pool, logger), pool.Close, nil

	default:
		return memory.NewChallengeStore(), func() {}, nil
	}
}

// initLogger initializes the logger
func initLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.IsProduction() {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, _ := zapCfg.Build()
		return logger
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := zapCfg.Build()
	return logger
}
