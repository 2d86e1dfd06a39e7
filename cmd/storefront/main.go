package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/cache"
	cartrepo "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/repository"
	cartservice "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/service"
	catalogrepo "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/repository"
	catalogservice "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/service"
	checkoutservice "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/config"
	storegrpc "github.com/Hariskhan09400/x-one-boutique-1/internal/grpc"
	h "github.com/Hariskhan09400/x-one-boutique-1/internal/http"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/notify"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/monitor"
	ordersrepo "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/repository"
	ordersservice "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	reviewrepo "github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/repository"
	reviewservice "github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/service"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx := context.Background()

	// Catalog (SQLite reference data)
	catalogRepo, err := catalogrepo.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	catalog := catalogservice.NewCatalogService(catalogRepo)
	log.Info("catalog ready", zap.String("path", cfg.CatalogDBPath))

	// Cart snapshots and reviews (MongoDB)
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		return err
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	if err := cartrepo.EnsureIndexes(ctx, mongoDB); err != nil {
		return err
	}
	if err := reviewrepo.EnsureIndexes(ctx, mongoDB); err != nil {
		return err
	}
	log.Info("connected to MongoDB", zap.String("db", cfg.Mongo.DBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.Redis.Addr))

	carts := cartservice.NewCartService(cartrepo.NewMongoRepository(mongoDB), cache.NewRedisCache(redisClient), log)

	// Orders
	var store ordersrepo.OrderRepository
	var pingOrders storegrpc.Probe
	switch cfg.Orders.Store {
	case "memory":
		store = ordersrepo.NewMemoryRepository()
		log.Warn("orders are kept in memory and will not survive a restart")
	default:
		pg, err := ordersrepo.NewRepository(&ordersrepo.Credentials{
			Host:     cfg.Orders.Host,
			Port:     cfg.Orders.Port,
			User:     cfg.Orders.User,
			Password: cfg.Orders.Password,
			DBName:   cfg.Orders.DBName,
		})
		if err != nil {
			return err
		}
		if err := pg.RunMigrations(); err != nil {
			_ = pg.Close()
			return fmt.Errorf("orders migrations: %w", err)
		}
		log.Info("orders database migrations completed")
		store, pingOrders = pg, pg.Ping
	}
	orderRepo := ordersrepo.NewBreakerRepository(store, log)
	defer orderRepo.Close()

	// Messaging
	var messenger notify.Messenger = notify.NewLogMessenger(log)
	var reconcileWriter monitor.MessageWriter = monitor.NewLogWriter(log)
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		notifyWriter := notify.NewKafkaWriter(cfg.Kafka.NotifyTopic, brokers...)
		defer notifyWriter.Close()
		messenger = notify.NewKafkaMessenger(notifyWriter)

		kw := notify.NewKafkaWriter(cfg.Kafka.ReconcileTopic, brokers...)
		defer kw.Close()
		reconcileWriter = kw
		log.Info("kafka publishing enabled", zap.Strings("brokers", brokers))
	}
	notifier := notify.NewService(cfg.Store.MerchantWhatsApp, cfg.Store.MerchantEmail, messenger, log)

	// Checkout
	if cfg.Store.PaymentKeySecret == "" {
		log.Warn("PAYMENT_KEY_SECRET not set: payment callbacks are accepted unsigned")
	}
	gateway := payment.NewBreakerGateway(payment.NewSimulatedGateway(), log)
	reconciler := ordersservice.NewReconciler(orderRepo, gateway, notifier,
		payment.NewSigner(cfg.Store.PaymentKeySecret), ordersservice.DefaultOptions(), log)

	users := auth.ContextProvider{}
	registry := checkoutservice.NewRegistry(carts, users, cfg.Store.CityMaxLength, log)
	storefront := checkoutservice.NewService(registry, catalog, reconciler, users, log)
	reviews := reviewservice.NewReviewService(reviewrepo.NewMongoRepository(mongoDB), catalog, log)

	// Background workers
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	startWorker := func(fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(workersCtx)
		}()
	}

	startWorker(monitor.NewMonitor(orderRepo, reconciler, reconcileWriter, cfg.Orders.AwaitingStaleAfter, log).Run)
	startWorker(func(ctx context.Context) { registry.RunEviction(ctx, cfg.SessionIdleTTL) })

	// gRPC health
	grpcServer := storegrpc.NewServer(log)
	grpcServer.AddProbe("carts", func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) })
	grpcServer.AddProbe("cart-cache", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	if pingOrders != nil {
		grpcServer.AddProbe("orders", pingOrders)
	}
	startWorker(func(ctx context.Context) { grpcServer.RunProbes(ctx, 15*time.Second) })

	go func() {
		if err := grpcServer.Listen(cfg.GRPCPort); err != nil {
			log.Error("grpc server error", zap.Error(err))
		}
	}()

	// HTTP
	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(catalog, cfg.RequestTimeout, log),
		Cart:     h.NewCartHandler(storefront, cfg.RequestTimeout, log),
		Checkout: h.NewCheckoutHandler(storefront, cfg.RequestTimeout, log),
		Orders:   h.NewOrdersHandler(ordersservice.NewOrderService(orderRepo), cfg.RequestTimeout, log),
		Reviews:  h.NewReviewHandler(reviews, cfg.RequestTimeout, log),
	}, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.Int("http_port", cfg.HTTPPort), zap.Int("grpc_port", cfg.GRPCPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		log.Info("shutting down storefront...")
	case runErr = <-serverErr:
		log.Error("http server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	stopWorkers()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("workers didn't stop in time")
	}

	if n := len(reconciler.Unreconciled()); n > 0 {
		log.Error("exiting with unreconciled payments", zap.Int("count", n))
	}
	log.Info("storefront stopped")
	return runErr
}
