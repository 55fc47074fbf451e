package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	cacheadapter "github.com/paygrid/payment-engine/internal/adapters/cache"
	eventadapter "github.com/paygrid/payment-engine/internal/adapters/events"
	grpcadapter "github.com/paygrid/payment-engine/internal/adapters/grpc"
	httpadapter "github.com/paygrid/payment-engine/internal/adapters/http"
	"github.com/paygrid/payment-engine/internal/adapters/memory"
	"github.com/paygrid/payment-engine/internal/adapters/postgres"
	"github.com/paygrid/payment-engine/internal/application"
	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.Worker
	cleanupFn  func(context.Context)
}

// NewRuntime wires the engine from config. Postgres, Redis, and Kafka are
// each optional: when the corresponding endpoint is absent the in-memory
// adapter takes its place, which is how the dev runtime and integration
// environments come up with zero external dependencies.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping payment engine", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	cleanup := func(context.Context) {}

	var (
		roles       ports.RoleRepository
		payments    ports.PaymentRepository
		stats       ports.StatsRepository
		escrows     ports.EscrowRepository
		feeConfig   ports.FeeConfigRepository
		idempotency ports.IdempotencyRepository
		outboxRepo  ports.OutboxRepository
		uow         ports.UnitOfWork
	)

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := pool.DB()
		if err != nil {
			return nil, fmt.Errorf("gorm sql db: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := postgres.NewRepositories(pool)
		roles = repos.Roles
		payments = repos.Payments
		stats = repos.Stats
		escrows = repos.Escrows
		feeConfig = repos.FeeConfig
		idempotency = repos.Idempotency
		outboxRepo = repos.Outbox
		uow = postgres.NewUnitOfWork(pool)
		cleanup = chain(cleanup, func(context.Context) { _ = sqlDB.Close() })
	} else {
		logger.Warn("no database_url configured, using in-memory repositories")
		repos := memory.NewRepositories()
		roles = repos.Roles
		payments = repos.Payments
		stats = repos.Stats
		escrows = repos.Escrows
		feeConfig = repos.FeeConfig
		idempotency = repos.Idempotency
		outboxRepo = repos.Outbox
	}

	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		idempotency = cacheadapter.NewRedisIdempotencyStore(redisClient)
		cleanup = chain(cleanup, func(context.Context) { _ = redisClient.Close() })
	}

	var (
		domainPub    ports.DomainPublisher
		analyticsPub ports.AnalyticsPublisher
		dlqPub       ports.DLQPublisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicDomainEvents, cfg.TopicAnalytics, cfg.TopicDLQ)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		domainPub = kafkaPub
		analyticsPub = kafkaPub
		dlqPub = kafkaPub
		cleanup = chain(cleanup, func(context.Context) { _ = kafkaPub.Close() })
	} else {
		logger.Warn("no kafka brokers configured, events stay in-process")
		domainPub = eventadapter.NewMemoryDomainPublisher()
		analyticsPub = eventadapter.NewMemoryAnalyticsPublisher()
		dlqPub = eventadapter.NewLoggingDLQPublisher()
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:           cfg.ServiceID,
			FeeCeilingBasisPoints: cfg.FeeCeilingBasisPoints,
			RefundGracePeriod:     cfg.RefundGracePeriod,
			MaxSplitRecipients:    cfg.MaxSplitRecipients,
			MaxMetadataLength:     cfg.MaxMetadataLength,
			IdempotencyTTL:        cfg.IdempotencyTTL,
			OutboxFlushBatchSize:  cfg.OutboxFlushBatchSize,
		},
		UnitOfWork:   uow,
		Roles:        roles,
		Payments:     payments,
		Stats:        stats,
		Escrows:      escrows,
		FeeConfig:    feeConfig,
		Idempotency:  idempotency,
		Outbox:       outboxRepo,
		DomainEvents: domainPub,
		Analytics:    analyticsPub,
		DLQ:          dlqPub,
	})

	if err := seed(ctx, logger, cfg, roles, feeConfig); err != nil {
		cleanup(ctx)
		return nil, err
	}

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewHealthServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     eventadapter.NewWorker(logger, svc, cfg.OutboxFlushInterval),
		cleanupFn:  cleanup,
	}, nil
}

func chain(prev, next func(context.Context)) func(context.Context) {
	return func(ctx context.Context) {
		next(ctx)
		prev(ctx)
	}
}

// seed installs the genesis admin and the initial fee schedule directly
// through the repositories. Both writes are idempotent across restarts:
// granting an existing role changes nothing, and the fee config is only
// written when the store has none yet.
func seed(ctx context.Context, logger *slog.Logger, cfg Config, roles ports.RoleRepository, feeConfig ports.FeeConfigRepository) error {
	if cfg.GenesisAdmin != "" {
		granted, err := roles.Grant(ctx, cfg.GenesisAdmin, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed genesis admin: %w", err)
		}
		if granted {
			logger.Info("genesis admin granted", "account", cfg.GenesisAdmin)
		}
	}
	if _, err := feeConfig.Get(ctx); errors.Is(err, domain.ErrNotFound) {
		initial := domain.FeeConfig{BasisPoints: cfg.DefaultFeeBasisPoints, Collector: cfg.FeeCollector}
		if err := initial.Validate(cfg.FeeCeilingBasisPoints); err != nil {
			return fmt.Errorf("initial fee config: %w", err)
		}
		if err := feeConfig.Set(ctx, initial); err != nil {
			return fmt.Errorf("seed fee config: %w", err)
		}
		logger.Info("initial fee config installed", "basis_points", initial.BasisPoints, "collector", initial.Collector)
	} else if err != nil {
		return fmt.Errorf("read fee config: %w", err)
	}
	return nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go func() {
		if err := r.outbox.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("outbox worker stopped", "error", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	cancelWorker()

	// Final flush so events enqueued during the last requests reach the
	// stream before the process exits.
	if err := r.service.FlushOutbox(shutdownCtx); err != nil {
		r.logger.Error("final outbox flush failed", "error", err)
	}

	r.cleanupFn(shutdownCtx)
	return nil
}
