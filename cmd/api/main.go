package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/config"
	"github.com/ariefcatur/storefront-orders/internal/httpx"
	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/logger"
	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/ariefcatur/storefront-orders/internal/redisx"
	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			zl.Fatal("db migrate", zap.Error(err))
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka
	bus := kafkax.NewBus(cfg.KafkaBrokers, 1024, zl, shop.TopicOrderPlaced, shop.TopicReviewSubmitted)
	bus.Start(ctx)

	store := &postgres.Store{
		Tx:  &postgres.TxManager{Gateway: &postgres.PoolGateway{Pool: db}, Log: zl},
		Log: zl,
	}
	orders := &shop.Service{Store: store, Events: bus, Log: zl, Producer: cfg.ServiceName}
	catalog := &shop.Catalog{
		Products: &postgres.ProductRepo{DB: db},
		Cache:    &redisx.CatalogCache{RDB: rdb, TTL: cfg.CatalogCacheTTL, Log: zl},
		Log:      zl,
	}

	router := httpx.NewRouter(zl)
	(&httpx.ShopHandler{
		Orders:              orders,
		Catalog:             catalog,
		Popular:             &redisx.Board{RDB: rdb},
		Log:                 zl,
		BreakfastCategoryID: cfg.BreakfastCategoryID,
		XmasCategoryID:      cfg.XmasCategoryID,
		Timeout:             cfg.RequestTimeout,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		zl.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zl.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	bus.Close()      // stop accepting, flush what is buffered
	bus.WaitClosed() // wait for the writers
	cancel()
}
