package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/mailer"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
)

const (
	cartCacheTTL     = 15 * time.Minute
	featuredCacheTTL = 2 * time.Minute
)

type mailService interface {
	SendAsync(msg mailer.Message)
	Close()
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		cancel()
		zl.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		cancel()
		zl.Fatal("failed to create indexes", zap.Error(err))
	}
	cancel()
	zl.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// the caches fall through to MongoDB on every error
		zl.Warn("redis unavailable, caching degraded", zap.Error(err))
	}
	pingCancel()

	policy, err := inventory.ParsePolicy(cfg.StockPolicy)
	if err != nil {
		zl.Fatal("invalid stock policy", zap.Error(err))
	}

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)

	bus := events.NewBus()
	hub := notify.NewHub(zl)
	if err := notify.Subscribe(hub, bus); err != nil {
		zl.Fatal("failed to subscribe hub to events", zap.Error(err))
	}

	var mail mailService = mailer.Noop{}
	if cfg.SMTP.Enabled {
		m, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Workers:  cfg.SMTP.Workers,
		}, zl)
		if err != nil {
			zl.Fatal("failed to create mailer", zap.Error(err))
		}
		mail = m
	}

	adjuster := inventory.NewAdjuster(productRepo, policy, zl)
	products := service.NewProductService(productRepo, orderRepo,
		cache.NewRedisCache[[]*domain.Product](redisClient, "featured", featuredCacheTTL), bus, zl)
	orders := service.NewOrderService(orderRepo, adjuster, products, bus, mail, zl)
	carts := service.NewCartService(cartRepo, productRepo,
		cache.NewRedisCache[domain.Cart](redisClient, "cart", cartCacheTTL), zl)

	errs := h.NewErrors(cfg.IsProduction(), zl)
	router := h.NewRouter(h.RouterConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Products:  h.NewProductHandler(products, errs, cfg.RequestTimeout),
		Orders:    h.NewOrdersHandler(orders, errs, cfg.RequestTimeout),
		Cart:      h.NewCartHandler(carts, errs, cfg.RequestTimeout),
		WebSocket: notify.NewHandler(hub, zl),
	}, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zl.Info("storefront starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("environment", cfg.Environment),
			zap.String("stock_policy", string(policy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	hub.Close()
	mail.Close()
	if err := redisClient.Close(); err != nil {
		zl.Warn("failed to close redis", zap.Error(err))
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		zl.Warn("failed to disconnect MongoDB", zap.Error(err))
	}

	zl.Info("server exited")
}
