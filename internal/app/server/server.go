package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentra/internal/domain/audit"
	"sentra/internal/domain/certificate"
	"sentra/internal/domain/lifecycle"
	"sentra/internal/domain/org"
	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
	"sentra/internal/platform/config"
	cryptoutil "sentra/internal/platform/crypto"
	"sentra/internal/platform/db"
	"sentra/internal/platform/email"
	"sentra/internal/platform/jobs"
	"sentra/internal/platform/locks"
	"sentra/internal/platform/metrics"
	audithandler "sentra/internal/transport/http/handlers/audit"
	authhandler "sentra/internal/transport/http/handlers/auth"
	certificateshandler "sentra/internal/transport/http/handlers/certificates"
	lifecyclehandler "sentra/internal/transport/http/handlers/lifecycle"
	"sentra/internal/transport/http/middleware"
	"sentra/migrations"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("crypto init failed: %v", err)
	}
	keys := cryptoutil.NewKeyStore(pool, crypto)

	sources, err := records.PostgresSources(pool, crypto)
	if err != nil {
		log.Fatalf("record sources init failed: %v", err)
	}

	orgStore := org.NewStore(pool)
	policyStore := policy.NewPostgresStore(pool)
	resolver := policy.NewResolver(policyStore)
	lifecycleStore := lifecycle.NewPostgresStore(pool)
	runStore := lifecycle.NewPostgresRunStore(pool)
	auditStore := audit.NewPostgresStore(pool)
	certStore := certificate.NewPostgresStore(pool)
	certService := certificate.NewService(certStore)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	mailer := email.New(cfg)
	alerter := alertMailer{mailer: mailer, from: cfg.EmailFrom, to: cfg.AlertEmail}

	var locker locks.Locker
	if cfg.RedisURL != "" {
		redisLocker, err := locks.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis locker init failed: %v", err)
		}
		locker = redisLocker
	} else {
		locker = locks.NewProcessLocker()
	}

	scanner := lifecycle.NewScanner(sources, lifecycleStore)
	softDel := lifecycle.NewSoftDeleteExecutor(sources, lifecycleStore)
	eraser := lifecycle.NewEraseExecutor(sources, lifecycleStore, keys, certService, alerter, m, cfg.OverwritePause)
	auditor := audit.NewAuditor(sources, lifecycleStore, auditStore)

	orchestrator := lifecycle.NewOrchestrator(lifecycle.OrchestratorDeps{
		Orgs:     orgStore,
		Policies: policyStore,
		Resolver: resolver,
		Scanner:  scanner,
		SoftDel:  softDel,
		Eraser:   eraser,
		Auditor:  auditor,
		Store:    lifecycleStore,
		Runs:     runStore,
		Locker:   locker,
		LockTTL:  cfg.ScanLockTTL,
		Metrics:  m,
	})

	scheduler := jobs.New(cfg.ScanTimeout, func(ctx context.Context) error {
		_, err := orchestrator.RunScanAll(ctx)
		if errors.Is(err, lifecycle.ErrScanInProgress) {
			slog.Info("scheduled scan skipped, another scan holds the lock")
			return nil
		}
		return err
	})
	if err := scheduler.Schedule(cfg.ScanSchedule); err != nil {
		log.Fatalf("scan schedule invalid: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(orgStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Route("/lifecycle", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			lifecyclehandler.NewHandler(orchestrator, lifecycleStore, runStore).RegisterRoutes(r)
			audithandler.NewHandler(auditStore).RegisterRoutes(r)
			certificateshandler.NewHandler(certService).RegisterRoutes(r)
		})
	})

	slog.Info("sentra server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// alertMailer adapts the platform mailer to the erase executor's Alerter.
type alertMailer struct {
	mailer email.Mailer
	from   string
	to     string
}

func (a alertMailer) Alert(ctx context.Context, subject, body string) error {
	return a.mailer.Send(ctx, a.from, a.to, subject, body)
}
