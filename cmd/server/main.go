package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/config"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/api"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/payment"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/redisclient"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/service"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting venue service")

	tp, err := util.InitTracer("venue-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	registry := payment.NewRegistry()
	registry.Register(payment.NewMercadoPagoProvider(cfg.Payments.MercadoPagoToken, cfg.Payments.MercadoPagoWebhookSecret, logger))
	registry.Register(payment.NewStripeProvider(cfg.Payments.StripeSecretKey, cfg.Payments.StripeWebhookSecret, logger))
	registry.Register(payment.NewBankTransferProvider(cfg.Payments.BankAccountHolder, cfg.Payments.BankAccountNumber))
	registry.Register(payment.NewNFCProvider(time.Duration(cfg.Business.NFCSessionTTLSeconds) * time.Second))
	registry.Register(payment.NewMockProvider(cfg.Payments.MockAlwaysSucceed))

	authService := service.NewAuthService(db, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHour)*time.Hour)
	catalogService := service.NewCatalogService(db, redisClient, time.Duration(cfg.Business.QRCacheTTLSeconds)*time.Second)
	questService := service.NewQuestService(db, catalogService, eventPublisher)
	passService := service.NewPassService(db, redisClient, eventPublisher, cfg.Business.PassExpiryHoursDefault)
	orderService := service.NewOrderService(db, redisClient, eventPublisher)
	paymentService := service.NewPaymentService(db, registry, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	eventConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	fulfillmentWorker := worker.NewFulfillmentWorker(eventConsumer, db)
	go func() {
		if err := fulfillmentWorker.Start(workerCtx); err != nil {
			log.Printf("Fulfillment worker error: %v", err)
		}
	}()

	expiryWorker := worker.NewExpiryWorker(passService, redisClient,
		time.Duration(cfg.Business.ExpirySweepSeconds)*time.Second)
	go func() {
		if err := expiryWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Expiry worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(authService, catalogService, questService, passService, orderService, paymentService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	fulfillmentWorker.Stop()
	expiryWorker.Stop()

	log.Println("Server exited")
}
