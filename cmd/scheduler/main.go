package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/medsouq/marketplace/internal/escrow"
	escrowrepo "github.com/medsouq/marketplace/internal/escrow/repository"
	"github.com/medsouq/marketplace/internal/installment"
	installmentrepo "github.com/medsouq/marketplace/internal/installment/repository"
	"github.com/medsouq/marketplace/internal/payment"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/database"
	"github.com/medsouq/marketplace/pkg/logger"
)

// The scheduler runs exactly one maintenance task and exits; external
// cron decides cadence. Tasks: escrow_release, installments_due,
// reminders, reconcile.
func main() {
	task := flag.String("task", "", "Task to run: escrow_release | installments_due | reminders | reconcile (mandatory)")
	batchSize := flag.Int("batch", 100, "Batch size for paged tasks")
	windowHours := flag.Int("window", 24, "Reminder window in hours around the due date")
	flag.Parse()

	if *task == "" {
		fmt.Println("Usage: scheduler -task <escrow_release|installments_due|reminders|reconcile> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment")
	}

	logger.Init("scheduler", getEnv("ENVIRONMENT", "development") == "development")
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	db, err := database.NewGormConnection(database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "paymentdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx := context.Background()

	switch *task {
	case "escrow_release":
		manager := escrow.NewManager(escrowrepo.NewGormEscrowRepository(db))
		released, err := manager.ReleaseExpired(ctx, *batchSize)
		exit(*task, err, "released", released)

	case "installments_due":
		manager := installment.NewManager(installmentrepo.NewGormInstallmentRepository(db), nil)
		flipped, err := manager.MarkOverdue(ctx)
		exit(*task, err, "marked_overdue", int(flipped))

	case "reminders":
		publisher := newPublisher()
		defer publisher.Close()
		manager := installment.NewManager(installmentrepo.NewGormInstallmentRepository(db), publisher)
		sent, err := manager.SendReminders(ctx, time.Duration(*windowHours)*time.Hour)
		exit(*task, err, "reminders_sent", sent)

	case "reconcile":
		publisher := newPublisher()
		defer publisher.Close()
		handler, err := payment.InitializeReconciler(db, payment.Config{
			EncryptionSecret: getEnv("PAYMENT_ENCRYPTION_SECRET", "marketplace-dev-secret"),
			EncryptionSalt:   getEnv("PAYMENT_ENCRYPTION_SALT", "marketplace-dev-salt"),
			Publisher:        publisher,
		})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize reconciler")
		}
		reconciled, issues, err := handler.HandleBatch(ctx, *batchSize)
		for _, issue := range issues {
			logger.Logger.Warn().
				Uint("payment_id", issue.PaymentID).
				Str("issue", issue.Issue).
				Msg("Reconciliation mismatch")
		}
		exit(*task, err, "reconciled", reconciled)

	default:
		logger.Logger.Fatal().Str("task", *task).Msg("Unknown task")
	}
}

func newPublisher() *kafka.Publisher {
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
	}
	return publisher
}

func exit(task string, err error, countKey string, count int) {
	if err != nil {
		logger.Logger.Error().Err(err).Str("task", task).Int(countKey, count).Msg("Task finished with errors")
		os.Exit(1)
	}
	logger.Logger.Info().Str("task", task).Int(countKey, count).Msg("Task finished")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
