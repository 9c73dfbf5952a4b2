package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachly/internal/api"
	"coachly/internal/config"
	"coachly/internal/database"
	"coachly/internal/domain"
	"coachly/internal/events"
	"coachly/internal/logging"
	"coachly/internal/metrics"
	"coachly/internal/payments"
	"coachly/internal/repository"
	"coachly/internal/schedule"
	"coachly/internal/service"
	"coachly/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	queue := initPaymentQueue(cfg, redisClient, &logger)
	gateway := initPaymentGateway(cfg, &logger)

	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, &logger)

	clock := schedule.SystemClock{}
	slotService := service.NewSlotService(db, db, clock, cfg.Booking.SlotStepMinutes, cfg.Booking.MaxWindowDays, &logger)
	bookingService := service.NewBookingService(db, eventBus, queue, clock, cfg.Payments.PlatformFeePercent, cfg.Booking.MaxAdvanceDays, &logger)

	httpServer := api.NewHTTPServer(cfg.API, slotService, bookingService, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	paymentWorker := worker.NewPaymentWorker(
		queue,
		gateway,
		worker.RetryPolicy{MaxRetries: cfg.Payments.MaxRetries},
		time.Duration(cfg.Payments.PollIntervalSeconds)*time.Second,
		&logger,
	)
	go paymentWorker.Start(ctx)

	return startServer(ctx, httpServer, cfg, &logger)
}

// subscribeEventLog keeps an audit trail of booking lifecycle events.
func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	types := []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingCompleted,
	}
	for _, eventType := range types {
		bus.Subscribe(eventType, func(event *events.Event) error {
			logger.Info().
				Str("event", event.Type).
				RawJSON("payload", event.Payload).
				Msg("booking event")
			return nil
		})
	}
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initPaymentQueue prefers Redis with an in-memory fallback; without Redis
// intents live only in process memory.
func initPaymentQueue(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.PaymentQueue {
	memory := repository.NewMemoryPaymentQueue()
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisPaymentQueue(redisClient, cfg.Payments.QueueKey, cfg.Payments.DeadLetterKey)
	return repository.NewFailoverPaymentQueue(primary, memory, logger)
}

func initPaymentGateway(cfg *config.Config, logger *zerolog.Logger) domain.PaymentGateway {
	if cfg.Payments.WebhookURL == "" {
		logger.Warn().Msg("no payment webhook configured, intents will only be logged")
		return payments.NewLogGateway(logger)
	}
	return payments.NewWebhookGateway(cfg.Payments.WebhookURL, 10*time.Second, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}
