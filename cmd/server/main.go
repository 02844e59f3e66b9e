package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fundmatch/internal/funding/cache"
	fundinghandler "fundmatch/internal/funding/handler"
	fundingmetrics "fundmatch/internal/funding/metrics"
	"fundmatch/internal/funding/service"
	"fundmatch/internal/funding/store"
	accountstore "fundmatch/internal/funding/store/account"
	campaignstore "fundmatch/internal/funding/store/campaign"
	donationstore "fundmatch/internal/funding/store/donation"
	platformstore "fundmatch/internal/funding/store/platform"
	"fundmatch/internal/platform/config"
	"fundmatch/internal/platform/httpserver"
	"fundmatch/internal/platform/logger"
	"fundmatch/internal/platform/middleware"
	"fundmatch/internal/platform/postgres"
	platformredis "fundmatch/internal/platform/redis"
	"fundmatch/internal/platform/tokens"
	"fundmatch/pkg/platform/audit"
	auditpublisher "fundmatch/pkg/platform/audit/publisher"
	auditmem "fundmatch/pkg/platform/audit/store/memory"
	auditpg "fundmatch/pkg/platform/audit/store/postgres"
	auditworker "fundmatch/pkg/platform/audit/worker"
)

// main wires the engine's dependencies and keeps the server lifecycle small.
// Business logic lives in internal/funding.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise. The service
	// options carry the transactional boundary that matches the backend.
	var (
		serviceOpts []service.Option
		outbox      audit.Outbox
		seeder      store.AccountSeeder
	)
	var svc *service.Service

	metrics := fundingmetrics.New()
	serviceOpts = append(serviceOpts,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithPolicy(cfg.Policy),
	)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		serviceOpts = append(serviceOpts,
			service.WithCache(cache.NewCampaignCache(redisClient.Client, cfg.Redis.CampaignTTL, log)))
		log.Info("campaign cache enabled", "ttl", cfg.Redis.CampaignTTL.String())
	}

	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}

		pgOutbox := auditpg.New(db)
		outbox = pgOutbox
		accounts := accountstore.NewPostgres(db)
		seeder = accounts
		svc = service.New(
			platformstore.NewPostgres(db),
			campaignstore.NewPostgres(db),
			donationstore.NewPostgres(db),
			accounts,
			append(serviceOpts,
				service.WithAudit(pgOutbox),
				service.WithTx(store.NewSQLTx(db)),
			)...,
		)
		log.Info("using postgres storage")
	} else {
		memOutbox := auditmem.New()
		outbox = memOutbox
		accounts := accountstore.NewInMemory()
		seeder = accounts
		svc = service.New(
			platformstore.NewInMemory(),
			campaignstore.NewInMemory(),
			donationstore.NewInMemory(),
			accounts,
			append(serviceOpts, service.WithAudit(memOutbox))...,
		)
		log.Info("using in-memory storage")
	}

	if cfg.DevSeed {
		// Development convenience: fund a few holding accounts so the engine
		// has something to move.
		if err := store.SeedHoldingAccounts(ctx, seeder, 1_000_000_000,
			"admin", "creator", "donor", "sponsor"); err != nil {
			log.Error("dev seed failed", "error", err)
			os.Exit(1)
		}
		log.Info("seeded development holding accounts")
	}

	// Audit feed: committed outbox rows drain to Kafka when brokers are
	// configured, otherwise to an in-process sink.
	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("audit feed enabled", "topic", cfg.Kafka.Topic)
	} else {
		publisher = auditpublisher.NewMemory()
	}
	drainWorker := auditworker.New(outbox, publisher, log, cfg.Kafka.DrainInterval)

	validator := tokens.NewValidator(cfg.JWTSigningKey)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		fundinghandler.New(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fundmatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := drainWorker.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
