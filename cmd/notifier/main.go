package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-admin-orders/internal/config"
	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/ariefcatur/go-admin-orders/internal/logging"
	"github.com/ariefcatur/go-admin-orders/internal/notify"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	service := cfg.ServiceName + "-notifier"
	logger, err := logging.New(service, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Alimtalk.BaseURL == "" {
		logger.Fatal("ALIMTALK_BASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Sender:       notify.NewAlimtalkClient(cfg.Alimtalk.BaseURL, cfg.Alimtalk.APIKey, cfg.Alimtalk.SenderKey),
		Redis:        rdb,
		TemplateCode: cfg.Alimtalk.TemplateCode,
		ServiceName:  service,
		Log:          logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.Notifier.Group, orders.TopicShippingNotify, cfg.Notifier.Workers, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("notifier consumer started",
			zap.String("group", cfg.Notifier.Group),
			zap.String("topic", orders.TopicShippingNotify),
			zap.Int("workers", cfg.Notifier.Workers))
		if err := cons.Start(ctx, svc.HandleShippingRequested); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer")
	cancel()
	<-done
}
