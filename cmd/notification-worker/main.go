package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer closeResource(logg, "redis", redisClient.Close)

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.Requirements{Subscription: true}, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer closeResource(logg, "pubsub", psClient.Close)

	manager, err := idempotency.NewManager(redisClient, cfg.PubSub.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	sender, driver, err := deliverySender(cfg.Notifications, logg)
	requireResource(ctx, logg, "notification sender", err)

	registry := prometheus.NewRegistry()
	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Subscription: psClient.NotificationSubscriber(),
		Sender:       sender,
		Driver:       driver,
		Idempotency:  manager,
		Metrics:      metrics.NewNotificationMetrics(registry),
		Logger:       logg,
	})
	requireResource(ctx, logg, "notification consumer", err)

	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Redis:    redisClient,
		PubSub:   psClient,
		Consumer: notificationConsumer,
	})
	requireResource(ctx, logg, "worker service", err)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()

	logg.Info(logg.WithField(ctx, "driver", driver), "starting notification worker")
	runErr := svc.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "metrics server shutdown failed", err)
	}

	if runErr != nil {
		logg.Error(ctx, "notification worker exited", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "notification worker shutting down gracefully")
}

// deliverySender picks SMTP when a host is configured. The pubsub driver only
// applies to the API side, so the worker never republishes.
func deliverySender(cfg config.NotificationsConfig, logg *logger.Logger) (notifications.Sender, string, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return notifications.NewLogSender(logg), config.NotificationDriverLog, nil
	}
	sender, err := notifications.NewSMTPSender(cfg)
	return sender, config.NotificationDriverSMTP, err
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}

func closeResource(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
