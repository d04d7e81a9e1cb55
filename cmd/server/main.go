package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	citizenHandler "outreach/internal/citizen/handler"
	"outreach/internal/citizen/lock"
	citizenMetrics "outreach/internal/citizen/metrics"
	citizenService "outreach/internal/citizen/service"
	citizenStore "outreach/internal/citizen/store"
	httpapi "outreach/internal/http"
	jwttoken "outreach/internal/jwt_token"
	"outreach/internal/messaging/gateway"
	messagingHandler "outreach/internal/messaging/handler"
	messagingMetrics "outreach/internal/messaging/metrics"
	"outreach/internal/messaging/providers"
	"outreach/internal/messaging/providers/cloudapi"
	"outreach/internal/messaging/providers/twilio"
	"outreach/internal/platform/config"
	"outreach/internal/platform/httpserver"
	"outreach/internal/platform/logger"
	"outreach/internal/platform/metrics"
	"outreach/internal/platform/postgres"
	"outreach/internal/platform/redis"
	rlMetrics "outreach/internal/ratelimit/metrics"
	rlMiddleware "outreach/internal/ratelimit/middleware"
	rlModels "outreach/internal/ratelimit/models"
	"outreach/internal/ratelimit/store/bucket"
	"outreach/internal/statistics"
	statisticsHandler "outreach/internal/statistics/handler"
	"outreach/pkg/platform/events"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	checks := map[string]httpapi.HealthCheck{}

	gw, err := gateway.New(gatewayConfig(cfg),
		gateway.WithLogger(log),
		gateway.WithMetrics(messagingMetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("messaging gateway: %w", err)
	}

	store, closeStore, err := buildStore(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis", "error", err)
			}
		}()
	}
	locker := buildLocker(redisClient, log)

	publisher, closePublisher, err := buildPublisher(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closePublisher()

	citizens, err := citizenService.New(store, gw,
		citizenService.WithLogger(log),
		citizenService.WithMetrics(citizenMetrics.New()),
		citizenService.WithLocker(locker),
		citizenService.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}
	defer citizens.Close()
	stats, err := statistics.NewService(store,
		statistics.WithLogger(log),
		statistics.WithMetrics(statistics.NewMetrics()),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Latency:      metrics.New(),
		Citizens:     citizenHandler.New(citizens, log, cfg.Survey.PageURL, cfg.BatchConcurrency),
		Statistics:   statisticsHandler.New(stats, log),
		Webhooks:     messagingHandler.New(gw, citizens, cfg.Messaging.VerifyToken, log),
		Metrics:      metrics.Handler(),
		HealthChecks: checks,
		RateLimit:    buildRateLimiter(cfg.RateLimit, redisClient, log),
	})

	log.Info("starting outreach",
		"addr", cfg.Addr,
		"provider", gw.Provider(),
		"mode", string(gw.Mode()),
	)
	return httpserver.Run(ctx, httpserver.New(cfg.Addr, router), 10*time.Second, log)
}

func gatewayConfig(cfg config.Server) gateway.Config {
	m := cfg.Messaging
	return gateway.Config{
		Provider:      m.Provider,
		Mode:          gateway.Mode(m.Mode),
		WebhookSecret: m.WebhookSecret,
		CountryCode:   m.CountryCode,
		SurveyBaseURL: cfg.Survey.BaseURL,
		Message:       m.Message,
		Template: providers.TemplateConfig{
			Name:     m.TemplateName,
			Language: m.TemplateLanguage,
		},
		CloudAPI: cloudapi.Config{
			BaseURL:       m.CloudAPIBaseURL,
			APIVersion:    m.CloudAPIVersion,
			PhoneNumberID: m.CloudAPIPhoneNumberID,
			AccessToken:   m.CloudAPIToken,
			Timeout:       m.Timeout,
		},
		Twilio: twilio.Config{
			BaseURL:    m.TwilioBaseURL,
			AccountSID: m.TwilioAccountSID,
			AuthToken:  m.TwilioAuthToken,
			From:       m.TwilioFrom,
			Timeout:    m.Timeout,
		},
	}
}

// citizenStoreDeps is what both the citizen and statistics services read from.
type citizenStoreDeps interface {
	citizenService.Store
	statistics.Store
}

func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httpapi.HealthCheck) (citizenStoreDeps, func(), error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, citizens are kept in memory")
		return citizenStore.NewInMemory(), func() {}, nil
	}
	pg := citizenStore.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate citizens: %w", err)
	}
	checks["postgres"] = db.PingContext
	return pg, closeDB(db, log), nil
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
	}
}

// buildLocker prefers the Redis lock so several instances serialize writes
// on the same citizen.
func buildLocker(client *redis.Client, log *slog.Logger) lock.Locker {
	if client == nil {
		return lock.NewKeyed()
	}
	return lock.NewRedis(client.Client, lock.WithLogger(log))
}

func buildRateLimiter(cfg config.RateLimitConfig, client *redis.Client, log *slog.Logger) *rlMiddleware.Middleware {
	var store rlMiddleware.BucketStore = bucket.NewInMemoryBucketStore()
	if client != nil {
		store = bucket.NewRedisBucketStore(client.Client)
	}
	return rlMiddleware.New(store, log,
		rlMiddleware.WithDisabled(cfg.Disabled),
		rlMiddleware.WithMetrics(rlMetrics.New()),
		rlMiddleware.WithLimit(rlModels.ClassPublic, rlModels.Limit{Requests: cfg.PublicPerMinute, Window: time.Minute}),
		rlMiddleware.WithLimit(rlModels.ClassOperator, rlModels.Limit{Requests: cfg.OperatorPerMinute, Window: time.Minute}),
	)
}

func buildPublisher(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httpapi.HealthCheck) (events.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewMemory(0), func() {}, nil
	}
	k, err := events.NewKafka(ctx, events.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, events.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("kafka publisher: %w", err)
	}
	checks["kafka"] = k.Health
	return k, k.Close, nil
}
