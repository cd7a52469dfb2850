package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	jwttoken "skillchain/internal/auth/jwt"
	"skillchain/internal/balances"
	balanceshandler "skillchain/internal/balances/handler"
	endorsementhandler "skillchain/internal/endorsement/handler"
	endorsementservice "skillchain/internal/endorsement/service"
	endorsementstore "skillchain/internal/endorsement/store"
	"skillchain/internal/events"
	kafkaevents "skillchain/internal/events/kafka"
	"skillchain/internal/platform/config"
	"skillchain/internal/platform/database"
	"skillchain/internal/platform/health"
	"skillchain/internal/platform/kafka/producer"
	"skillchain/internal/platform/logger"
	"skillchain/internal/platform/metrics"
	platformredis "skillchain/internal/platform/redis"
	"skillchain/internal/platform/tracer"
	"skillchain/internal/profile"
	registryhandler "skillchain/internal/registry/handler"
	registryservice "skillchain/internal/registry/service"
	registrystore "skillchain/internal/registry/store"
	"skillchain/internal/sequence"
	"skillchain/internal/state"
	"skillchain/internal/state/memory"
	"skillchain/internal/state/postgres"
	redisstate "skillchain/internal/state/redis"
	httptransport "skillchain/internal/transport/http"
	"skillchain/migrations"
	"skillchain/pkg/platform/circuit"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Ledger semantics live in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log.Info("initializing skillchain",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"state_backend", cfg.State.Backend,
		"max_metadata_length", cfg.Ledger.MaxMetadataLength,
		"verifier_allowlist", len(cfg.Ledger.VerifierAccounts) > 0,
		"require_existing_credential", cfg.Ledger.RequireExistingCredential,
	)

	healthHandler := health.New(cfg.Environment)
	backend, background, closeBackend, err := openBackend(ctx, cfg, healthHandler)
	if err != nil {
		return err
	}
	defer closeBackend()

	m := metrics.New()
	publisher, closePublisher, err := buildPublisher(cfg, log, healthHandler, m)
	if err != nil {
		return err
	}
	defer closePublisher()

	tr := tracer.NewOTel()
	executor := state.NewExecutor(backend, state.WithLogger(log))
	blocks := sequence.NewTicker(1, cfg.Ledger.BlockInterval, log)
	healthHandler.SetBlockSource(blocks)

	ledger := balances.NewLedger()
	balanceService := balances.NewService(executor, ledger, balances.WithLogger(log))
	if applied, err := balanceService.ApplyGenesis(ctx, cfg.Ledger.GenesisBalances); err != nil {
		return fmt.Errorf("apply genesis balances: %w", err)
	} else if applied {
		log.Info("genesis balances applied", "accounts", len(cfg.Ledger.GenesisBalances))
	}

	credentials := registrystore.New()
	endorsements := endorsementstore.New()

	registryOpts := []registryservice.Option{
		registryservice.WithMaxMetadataLength(cfg.Ledger.MaxMetadataLength),
		registryservice.WithPublisher(publisher),
		registryservice.WithMetrics(m),
		registryservice.WithTracer(tr),
		registryservice.WithLogger(log),
	}
	if len(cfg.Ledger.VerifierAccounts) > 0 {
		registryOpts = append(registryOpts,
			registryservice.WithVerifierPolicy(registryservice.NewAllowlistPolicy(cfg.Ledger.VerifierAccounts...)))
	}
	registryService := registryservice.NewService(executor, credentials, blocks, registryOpts...)

	endorsementOpts := []endorsementservice.Option{
		endorsementservice.WithPublisher(publisher),
		endorsementservice.WithMetrics(m),
		endorsementservice.WithTracer(tr),
		endorsementservice.WithLogger(log),
	}
	if cfg.Ledger.RequireExistingCredential {
		endorsementOpts = append(endorsementOpts, endorsementservice.WithCredentialLookup(credentials))
	}
	endorsementService := endorsementservice.NewService(executor, endorsements, ledger, blocks, endorsementOpts...)

	tokens := jwttoken.NewJWTService(
		cfg.Server.JWTSigningKey,
		cfg.Server.TokenIssuer,
		cfg.Server.TokenAudience,
		cfg.Server.TokenTTL,
	)
	tokens.SetEnv(cfg.Environment)

	registryRoutes := registryhandler.New(registryService, log)
	endorsementRoutes := endorsementhandler.New(endorsementService, log)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:    log,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Latency:   m,
		Gatherer:  prometheus.DefaultGatherer,
		Health:    healthHandler,
	},
		[]httptransport.CallRoutes{registryRoutes, endorsementRoutes},
		[]httptransport.QueryRoutes{
			registryRoutes,
			endorsementRoutes,
			balanceshandler.New(balanceService),
			profile.NewHandler(profile.NewService(executor, credentials, endorsements), log),
		},
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return blocks.Run(gctx)
	})
	for _, task := range background {
		g.Go(func() error {
			return task(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openBackend selects the state backend and registers its readiness check.
// It also returns background tasks the backend needs while the server runs.
func openBackend(ctx context.Context, cfg config.Config, h *health.Handler) (state.Backend, []func(context.Context) error, func(), error) {
	switch cfg.State.Backend {
	case config.BackendPostgres:
		pool, err := database.New(ctx, database.Config{
			URL:             cfg.State.DatabaseURL,
			MaxOpenConns:    cfg.State.Database.MaxOpenConns,
			MaxIdleConns:    cfg.State.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.State.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			_ = pool.Close()
			return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		h.RegisterCheck("database", pool.Health)
		return postgres.New(pool.DB()), nil, func() { _ = pool.Close() }, nil

	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.State.Redis, platformredis.NewPoolMetrics(prometheus.DefaultRegisterer))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		h.RegisterCheck("redis", client.Health)
		var opts []redisstate.Option
		if cfg.State.Redis.KeyPrefix != "" {
			opts = append(opts, redisstate.WithPrefix(cfg.State.Redis.KeyPrefix))
		}
		poolStats := func(ctx context.Context) error {
			return client.RunPoolStats(ctx, poolStatsInterval)
		}
		return redisstate.New(client.Client, opts...), []func(context.Context) error{poolStats}, func() { _ = client.Close() }, nil

	default:
		return memory.New(), nil, func() {}, nil
	}
}

// buildPublisher always logs events and additionally ships them to Kafka when brokers are configured.
func buildPublisher(cfg config.Config, log *slog.Logger, h *health.Handler, m *metrics.Metrics) (events.Publisher, func(), error) {
	sinks := events.Fanout{events.NewLogPublisher(log)}
	if len(cfg.Kafka.Brokers) == 0 {
		return sinks, func() {}, nil
	}

	kcfg := producer.DefaultConfig()
	kcfg.Brokers = strings.Join(cfg.Kafka.Brokers, ",")
	p, err := producer.New(kcfg, log, producer.WithDeliveryFailure(func(msg *producer.Message, _ error) {
		m.IncrementPublishErrors(msg.Headers["event_type"])
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka producer: %w", err)
	}
	h.RegisterCheck("kafka", p.Health)
	log.Info("publishing ledger events to kafka", "brokers", kcfg.Brokers, "topic", cfg.Kafka.Topic)

	breaker := circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithCoolDown(30*time.Second))
	sinks = append(sinks, events.NewGuarded(kafkaevents.New(p, cfg.Kafka.Topic), breaker, log))
	return sinks, func() { _ = p.Close() }, nil
}
