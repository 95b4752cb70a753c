package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/storefront-orders/internal/config"
	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/logger"
	"github.com/ariefcatur/storefront-orders/internal/popularity"
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
	zl = zl.With(zap.String("service", cfg.ServiceName+"-popularity"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &popularity.Service{Redis: rdb, Board: &redisx.Board{RDB: rdb}, Log: zl}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PopularityGroup, shop.TopicOrderPlaced, cfg.PopularityWorkers, zl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		zl.Info("popularity consumer started",
			zap.String("group", cfg.PopularityGroup),
			zap.String("topic", shop.TopicOrderPlaced),
			zap.Int("workers", cfg.PopularityWorkers),
		)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			zl.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	zl.Info("shutting down consumer")
	cancel()
	<-done
}
