package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/iskomart/iskomart-backend/internal/cron"
	"github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/orders"
	"github.com/iskomart/iskomart-backend/internal/users"
	"github.com/iskomart/iskomart-backend/pkg/config"
	"github.com/iskomart/iskomart-backend/pkg/db"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
	"github.com/iskomart/iskomart-backend/pkg/redis"
	"github.com/iskomart/iskomart-backend/pkg/telemetry"
)

const (
	serviceName = "iskomart-sweeper"
	lockKey     = "iskomart:sweeper:lock"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "sweeper stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	if cfg.Sweeper.PendingOrderTTL <= 0 {
		logg.Warn(ctx, "pending order ttl disabled, nothing to sweep")
		return nil
	}

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(flushCtx))
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		if lock, err = cron.NewRedisLock(redisClient, lockKey, cfg.Sweeper.LockTTL); err != nil {
			return err
		}
	}

	var publisher messages.Publisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher := messages.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer func() { err = multierr.Append(err, kafkaPublisher.Close()) }()
		publisher = kafkaPublisher
	}

	reg := prometheus.NewRegistry()
	conn := dbClient.DB()
	directory, err := users.NewDirectory(users.NewRepository(conn))
	if err != nil {
		return err
	}
	messageSvc, err := messages.NewService(messages.NewRepository(conn), directory, publisher, logg)
	if err != nil {
		return err
	}
	expirer, err := orders.NewExpirer(orders.NewRepository(conn), dbClient, messageSvc,
		metrics.NewOrderMetrics(reg), logg, cfg.Sweeper.BatchSize)
	if err != nil {
		return err
	}
	expiryJob, err := cron.NewOrderExpiryJob(expirer, cfg.Sweeper.PendingOrderTTL)
	if err != nil {
		return err
	}

	sweeper, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(reg),
		Interval: cfg.Sweeper.Interval,
		Jobs:     []cron.Job{expiryJob},
	})
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Sweeper.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if cfg.Metrics.Enabled {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "sweeper metrics server failed", err)
			}
		}()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer cancel()
			err = multierr.Append(err, metricsServer.Shutdown(closeCtx))
		}()
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"interval":    cfg.Sweeper.Interval.String(),
		"pending_ttl": cfg.Sweeper.PendingOrderTTL.String(),
		"redis_lock":  cfg.Redis.Enabled(),
	}), "starting sweeper")

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
