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

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/config"
	"github.com/ariefcatur/go-admin-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/ariefcatur/go-admin-orders/internal/logging"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/payment"
	"github.com/ariefcatur/go-admin-orders/internal/postgres"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"github.com/ariefcatur/go-admin-orders/internal/shipping"
	"github.com/ariefcatur/go-admin-orders/internal/upload"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: status events and shipping notification requests
	events := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024, logger)
	events.Start(ctx)
	notices := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicShippingNotify, 256, logger)
	notices.Start(ctx)

	store := &orders.Repo{DB: db}
	adminStore := &admins.Repo{DB: db}
	svc := &orders.Service{
		Store:       store,
		Admins:      adminStore,
		Cache:       redisx.NewListCache(rdb, cfg.ListCacheTTL),
		Events:      events,
		Notices:     notices,
		Log:         logger.Named("orders"),
		ServiceName: cfg.ServiceName,
	}
	if cfg.Payment.BaseURL != "" {
		svc.Payments = payment.New(cfg.Payment.BaseURL, cfg.Payment.APIKey)
	} else {
		logger.Warn("PAYMENT_BASE_URL not set, order cancellation disabled")
	}

	handlers := httpx.Handlers{
		Orders: &httpx.OrdersHandler{
			Service:  svc,
			Exporter: &shipping.Exporter{Orders: store, Workflow: svc, Log: logger.Named("shipping")},
		},
		Admins: &httpx.AdminsHandler{Store: adminStore},
	}
	if cfg.Storage.BaseURL != "" {
		objects := upload.NewHTTPObjectStore(cfg.Storage.BaseURL, cfg.Storage.PublicBaseURL, cfg.Storage.Bucket, cfg.Storage.Token)
		handlers.Uploads = &httpx.UploadsHandler{
			Pipeline:    upload.NewPipeline(objects, "products", logger.Named("upload")),
			SplitHeight: cfg.Storage.SplitHeight,
			MaxBytes:    int64(cfg.Storage.MaxUploadMB) << 20,
		}
	}

	router := httpx.NewRouter(logger)
	handlers.Mount(router, httpx.Authenticate(adminStore))

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	events.Close()
	notices.Close()
	cancel()
	events.WaitClosed()
	notices.WaitClosed()
}
