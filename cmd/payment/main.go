package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/medsouq/marketplace/docs"

	auditdomain "github.com/medsouq/marketplace/internal/audit/domain"
	escrowdomain "github.com/medsouq/marketplace/internal/escrow/domain"
	installmentdomain "github.com/medsouq/marketplace/internal/installment/domain"
	"github.com/medsouq/marketplace/internal/invoice"
	invoicedomain "github.com/medsouq/marketplace/internal/invoice/domain"
	invoicerepo "github.com/medsouq/marketplace/internal/invoice/repository"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/handler"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/database"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "payment-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting payment service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "paymentdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&domain.Payment{},
		&domain.PaymentMethod{},
		&domain.PaymentTransaction{},
		&domain.Refund{},
		&domain.FraudAlert{},
		&domain.GatewayConfig{},
		&escrowdomain.Account{},
		&escrowdomain.LedgerEntry{},
		&installmentdomain.Plan{},
		&installmentdomain.Payment{},
		&auditdomain.Record{},
		&invoicedomain.Invoice{},
	); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Initialize Kafka publisher for settlement and alert events
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
	}
	defer publisher.Close()

	// Initialize handler with Wire DI
	paymentHandler, err := payment.InitializeHandler(db, payment.Config{
		EncryptionSecret: getEnv("PAYMENT_ENCRYPTION_SECRET", "marketplace-dev-secret"),
		EncryptionSalt:   getEnv("PAYMENT_ENCRYPTION_SALT", "marketplace-dev-salt"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		Publisher:        publisher,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	logger.Logger.Info().
		Strs("kafka_brokers", brokers).
		Msg("Payment handler initialized")

	// Invoice generation subscribes to settlement events
	consumer, err := kafka.NewConsumer(brokers, "invoice-service", []string{kafka.TopicPayments})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer consumer.Close()

	generator := invoice.NewGenerator(invoicerepo.NewGormInvoiceRepository(db))
	consumer.RegisterHandler(kafka.EventTypePaymentCompleted, generator.HandlePaymentCompleted)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	if err := consumer.Start(consumerCtx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
	}

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8083")
	startHTTPServer(paymentHandler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(paymentHandler *handler.PaymentHandler, db *sql.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register all middlewares using middleware registration system
	handler.RegisterMiddlewares(router, handler.DefaultMiddlewareConfig())

	// Register routes
	paymentHandler.RegisterRoutes(router)

	// Health check endpoint
	paymentHandler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	handler.RegisterSwaggerDocs(router, httpSwagger.WrapHandler)

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	go func() {
		if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
