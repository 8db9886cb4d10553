package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/internal/api"
	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/billing"
	"github.com/NikhilSetiya/securex/internal/cache"
	"github.com/NikhilSetiya/securex/internal/database"
	"github.com/NikhilSetiya/securex/internal/export"
	"github.com/NikhilSetiya/securex/internal/notifications"
	"github.com/NikhilSetiya/securex/internal/ratelimit"
	"github.com/NikhilSetiya/securex/internal/realtime"
	"github.com/NikhilSetiya/securex/internal/registry"
	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/tracing"
)

const serviceName = "securex-api"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: serviceName,
		Version:     api.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize notification logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	tracer, err := tracing.NewTracingService(&tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: api.Version,
		Environment:    cfg.Tracing.Environment,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	m := metrics.NewMetrics(&metrics.Config{Namespace: cfg.Metrics.Namespace, Enabled: cfg.Metrics.Enabled})
	httpClient := tracer.InstrumentHTTPClient(&http.Client{Timeout: 30 * time.Second})

	// Hosted backend
	client, err := backend.NewClient(cfg.Supabase)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	scanStore := backend.NewScanStore(client)
	profileStore := backend.NewProfileStore(client)
	authenticator := backend.NewTokenAuthenticator(cfg.Supabase)

	feed, err := realtime.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	if err != nil {
		log.Fatalf("Failed to create realtime client: %v", err)
	}

	health := map[string]api.HealthChecker{}

	// The direct database connection is optional for the API; it only
	// feeds the health check.
	if cfg.Supabase.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := database.Open(ctx, cfg.Supabase.DatabaseURL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Database unavailable, continuing without direct connection")
		} else {
			defer db.Close()
			health["database"] = db
		}
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.Limits.CodeAttemptsPerMinute, time.Minute)
	var cacheStore cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisClient, err := ratelimit.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		redisLimiter := ratelimit.NewRedisLimiter(redisClient, "securex:ratelimit", cfg.Limits.CodeAttemptsPerMinute, time.Minute)
		limiter = redisLimiter
		cacheStore = cache.NewRedisStore(redisClient)
		health["redis"] = redisLimiter
		logger.Info("Redis connection established")
	}

	// Analysis
	notifier := notifications.NewChatNotifier(cfg.Notifications, cfg.Server.PublicURL, zapLogger, httpClient)
	analyzer := analysis.NewAnalyzer(scanStore,
		analysis.NewGatewayClient(cfg.AI, httpClient, m),
		analysis.WithRepoInspector(cache.NewRepoCache(
			analysis.NewGitHubInspector(cfg.GitHub, httpClient),
			cache.NewService(cacheStore, nil),
		)),
		analysis.WithCriticalAlerter(notifier),
		analysis.WithMetrics(m),
		analysis.WithTracing(tracer),
		analysis.WithTimeout(cfg.AI.Timeout),
	)

	manager := scans.NewManager(scanStore, profileStore, analyzer, cfg.Limits, m)
	observer := scans.NewObserver(feed, scanStore, m)

	// Billing
	billingService := billing.NewService(cfg,
		billing.NewStripeGateway(cfg.Stripe, nil),
		registry.NewClient(cfg.Registry, httpClient, m),
		profileStore,
		profileStore,
		notifier,
		m,
	)

	router := api.NewRouter(api.Dependencies{
		Config:        cfg,
		Authenticator: authenticator,
		Scans:         scanStore,
		Profiles:      profileStore,
		Roles:         profileStore,
		Manager:       manager,
		Analyzer:      analyzer,
		Watcher:       observer,
		Billing:       billingService,
		Exporter:      export.NewExporter(),
		Limiter:       limiter,
		Metrics:       m,
		Tracing:       tracer,
		Health:        health,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Analyses run detached from requests; give them the rest of the grace
	// period to write their results.
	if err := analyzer.Wait(ctx); err != nil {
		logger.WithError(err).Warn("Analyses still running at shutdown")
	}
	if err := tracer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("Tracer shutdown failed")
	}

	logger.Info("Server exited")
}
