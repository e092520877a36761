package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/iskomart/iskomart-backend/api/routes"
	"github.com/iskomart/iskomart-backend/internal/cart"
	"github.com/iskomart/iskomart-backend/internal/catalog"
	"github.com/iskomart/iskomart-backend/internal/checkout"
	"github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/orders"
	"github.com/iskomart/iskomart-backend/internal/users"
	"github.com/iskomart/iskomart-backend/pkg/config"
	"github.com/iskomart/iskomart-backend/pkg/db"
	"github.com/iskomart/iskomart-backend/pkg/enums"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
	"github.com/iskomart/iskomart-backend/pkg/migrate"
	"github.com/iskomart/iskomart-backend/pkg/redis"
	"github.com/iskomart/iskomart-backend/pkg/telemetry"
)

const serviceName = "iskomart-api"

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
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(shutdownCtx))
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient)
	} else {
		logg.Warn(ctx, "redis not configured, idempotent replay disabled")
	}

	var publisher messages.Publisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher := messages.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		closers = append(closers, kafkaPublisher)
		publisher = kafkaPublisher
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(reg)

	conn := dbClient.DB()
	directory, err := users.NewDirectory(users.NewRepository(conn))
	if err != nil {
		return err
	}
	messageSvc, err := messages.NewService(messages.NewRepository(conn), directory, publisher, logg)
	if err != nil {
		return err
	}

	itemRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, itemRepo)
	if err != nil {
		return err
	}

	var policy enums.TransitionPolicy
	if cfg.Orders.StrictTransitions {
		policy = enums.DefaultTransitionTable()
	}
	ordersRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(ordersRepo, dbClient, messageSvc, policy, orderMetrics, logg)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(dbClient, cartSvc, cartRepo, ordersRepo, itemRepo, messageSvc,
		checkout.Options{ClearCartOnCheckout: cfg.Orders.ClearCartOnCheckout}, orderMetrics, logg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":                cfg.App.Env,
		"addr":               addr,
		"strict_transitions": cfg.Orders.StrictTransitions,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Gatherer:    reg,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			Cart:        cartSvc,
			Checkout:    checkoutSvc,
			Orders:      orderSvc,
			Messages:    messageSvc,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
