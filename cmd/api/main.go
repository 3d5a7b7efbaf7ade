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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	requireResource(ctx, logg, "database", err)
	defer closeResource(logg, "database", dbClient.Close)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to sync schema", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer closeResource(logg, "redis", redisClient.Close)

	var publisher notifications.Publisher
	if cfg.Notifications.NormalizedDriver() == config.NotificationDriverPubSub {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.Requirements{Topic: true}, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer closeResource(logg, "pubsub", psClient.Close)

		topic := notifications.NewTopicPublisher(psClient.NotificationPublisher())
		defer topic.Stop()
		publisher = topic
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)

	sender, err := notifications.NewSender(cfg.Notifications, publisher, logg)
	requireResource(ctx, logg, "notification sender", err)

	notifier, err := notifications.NewNotifier(notifications.NotifierParams{
		Users:   userRepo,
		Sender:  sender,
		Driver:  cfg.Notifications.NormalizedDriver(),
		Metrics: metrics.NewNotificationMetrics(registry),
		Logger:  logg,
	})
	requireResource(ctx, logg, "notifier", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Mailer:         notifier,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		PublicURL:      cfg.App.PublicURL,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	usersService, err := users.NewService(userRepo)
	requireResource(ctx, logg, "users service", err)

	productService, err := product.NewService(productRepo)
	requireResource(ctx, logg, "product service", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Carts:    cart.NewCartRepository(conn),
		Items:    cart.NewCartItemRepository(conn),
		Tx:       dbClient,
		Products: productRepo,
		Logger:   logg,
	})
	requireResource(ctx, logg, "cart service", err)

	couponService, err := coupons.NewService(coupons.NewRepository(conn), nil)
	requireResource(ctx, logg, "coupon service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(conn),
		Tx:       dbClient,
		Products: productRepo,
		Notifier: notifier,
		Logger:   logg,
	})
	requireResource(ctx, logg, "orders service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Orders:   ordersService,
		Catalog:  productRepo,
		Coupons:  couponService,
		Carts:    cartService,
		Notifier: notifier,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(conn), productRepo)
	requireResource(ctx, logg, "wishlist service", err)

	bannerService, err := banners.NewService(banners.NewRepository(conn), productRepo)
	requireResource(ctx, logg, "banner service", err)

	router := routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Idempotency: redisClient,
		Gatherer:    registry,
	}, routes.Services{
		Auth:     authService,
		Users:    usersService,
		Products: productService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   ordersService,
		Coupons:  couponService,
		Wishlist: wishlistService,
		Banners:  bannerService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
	logg.Info(serverCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}

// Deferred closers unwind in reverse, so the database closes last.
func closeResource(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
