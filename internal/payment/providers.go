package payment

import (
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	auditdomain "github.com/medsouq/marketplace/internal/audit/domain"
	auditrepo "github.com/medsouq/marketplace/internal/audit/repository"
	"github.com/medsouq/marketplace/internal/escrow"
	escrowdomain "github.com/medsouq/marketplace/internal/escrow/domain"
	escrowrepo "github.com/medsouq/marketplace/internal/escrow/repository"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	orderrepo "github.com/medsouq/marketplace/internal/order/repository"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/internal/payment/payerrors"
	"github.com/medsouq/marketplace/internal/payment/repository"
	"github.com/medsouq/marketplace/internal/payment/usecase/command"
	"github.com/medsouq/marketplace/internal/payment/usecase/query"
	"github.com/medsouq/marketplace/internal/security"
	"github.com/medsouq/marketplace/kafka"
)

// Config carries the secrets and shared infrastructure the payment
// service needs beyond the database handle.
type Config struct {
	EncryptionSecret string
	EncryptionSalt   string
	RedisAddr        string
	RedisPassword    string
	Publisher        *kafka.Publisher
}

// Repository providers
func ProvidePaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return repository.NewGormPaymentRepository(db)
}

func ProvidePaymentMethodRepository(db *gorm.DB) domain.PaymentMethodRepository {
	return repository.NewGormPaymentMethodRepository(db)
}

func ProvideTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return repository.NewGormTransactionRepository(db)
}

func ProvideRefundRepository(db *gorm.DB) domain.RefundRepository {
	return repository.NewGormRefundRepository(db)
}

func ProvideFraudAlertRepository(db *gorm.DB) domain.FraudAlertRepository {
	return repository.NewGormFraudAlertRepository(db)
}

func ProvideGatewayConfigRepository(db *gorm.DB) domain.GatewayConfigRepository {
	return repository.NewGormGatewayConfigRepository(db)
}

func ProvideOrderRepository(db *gorm.DB) orderdomain.OrderRepository {
	return orderrepo.NewGormOrderRepository(db)
}

func ProvideEscrowRepository(db *gorm.DB) escrowdomain.EscrowRepository {
	return escrowrepo.NewGormEscrowRepository(db)
}

func ProvideAuditRepository(db *gorm.DB) auditdomain.AuditRepository {
	return auditrepo.NewGormAuditRepository(db)
}

// Security and error-handling providers
func ProvideCipher(cfg Config) (*security.Cipher, error) {
	return security.NewCipher(cfg.EncryptionSecret, cfg.EncryptionSalt)
}

func ProvideFraudScorer(payments domain.PaymentRepository) *security.FraudScorer {
	return security.NewFraudScorer(paymentHistory{payments: payments})
}

// ProvideRedisClient returns nil when no address is configured; the
// boundary and rate limiter then fall back to their in-memory stores.
func ProvideRedisClient(cfg Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func ProvideBoundary(client *redis.Client) *payerrors.Boundary {
	if client != nil {
		return payerrors.NewBoundary(payerrors.NewRedisBoundaryStore(client))
	}
	return payerrors.NewBoundary(payerrors.NewMemoryBoundaryStore())
}

func ProvideRateLimiter(client *redis.Client) *security.RateLimiter {
	if client != nil {
		return security.NewRateLimiter(security.NewRedisLimiterStore(client), 10, time.Minute)
	}
	return security.NewRateLimiter(security.NewMemoryLimiterStore(), 10, time.Minute)
}

func ProvideErrorHandler(
	payments domain.PaymentRepository,
	txs domain.TransactionRepository,
	audit auditdomain.AuditRepository,
	cfg Config,
) *payerrors.Handler {
	return payerrors.NewHandler(payments, txs, audit, cfg.Publisher)
}

// Gateway and escrow providers
func ProvideGatewayManager(
	configs domain.GatewayConfigRepository,
	payments domain.PaymentRepository,
	cipher *security.Cipher,
) (*gateway.Manager, error) {
	return gateway.NewManager(configs, payments, cipher)
}

func ProvideEscrowManager(repo escrowdomain.EscrowRepository) *escrow.Manager {
	return escrow.NewManager(repo)
}

// Command handler providers
func ProvideCreateOrderHandler(
	db *gorm.DB,
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	methods domain.PaymentMethodRepository,
) *command.CreateOrderWithPaymentHandler {
	return command.NewCreateOrderWithPaymentHandler(db, orders, payments, methods)
}

func ProvideProcessHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	methods domain.PaymentMethodRepository,
	txs domain.TransactionRepository,
	alerts domain.FraudAlertRepository,
	manager *gateway.Manager,
	cipher *security.Cipher,
	scorer *security.FraudScorer,
	boundary *payerrors.Boundary,
	errs *payerrors.Handler,
	escrowManager *escrow.Manager,
	cfg Config,
) *command.ProcessOrderPaymentHandler {
	return command.NewProcessOrderPaymentHandler(
		orders, payments, methods, txs, alerts,
		manager, cipher, scorer, boundary, errs, escrowManager, cfg.Publisher)
}

func ProvideCancelHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	refunds domain.RefundRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	cfg Config,
) *command.CancelOrderWithRefundHandler {
	return command.NewCancelOrderWithRefundHandler(
		orders, payments, refunds, txs, manager, escrowManager, cfg.Publisher)
}

func ProvideRetryHandler(
	payments domain.PaymentRepository,
	errs *payerrors.Handler,
	process *command.ProcessOrderPaymentHandler,
) *command.RetryPaymentHandler {
	return command.NewRetryPaymentHandler(payments, errs, process)
}

func ProvideReconcileHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	cfg Config,
) *command.ReconcilePaymentsHandler {
	return command.NewReconcilePaymentsHandler(
		orders, payments, txs, manager, escrowManager, cfg.Publisher)
}

func ProvideWebhookHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	cfg Config,
) *command.HandleWebhookHandler {
	return command.NewHandleWebhookHandler(
		orders, payments, txs, manager, escrowManager, cfg.Publisher)
}

// Query handler providers
func ProvideGetPaymentHandler(payments domain.PaymentRepository, txs domain.TransactionRepository) *query.GetPaymentHandler {
	return query.NewGetPaymentHandler(payments, txs)
}

func ProvideGetOrderHandler(orders orderdomain.OrderRepository, payments domain.PaymentRepository) *query.GetOrderHandler {
	return query.NewGetOrderHandler(orders, payments)
}

func ProvideListPaymentsHandler(payments domain.PaymentRepository) *query.ListPaymentsHandler {
	return query.NewListPaymentsHandler(payments)
}

func ProvideGetMyPaymentsHandler(payments domain.PaymentRepository) *query.GetMyPaymentsHandler {
	return query.NewGetMyPaymentsHandler(payments)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvidePaymentRepository,
	ProvidePaymentMethodRepository,
	ProvideTransactionRepository,
	ProvideRefundRepository,
	ProvideFraudAlertRepository,
	ProvideGatewayConfigRepository,
	ProvideOrderRepository,
	ProvideEscrowRepository,
	ProvideAuditRepository,
)

var SecuritySet = wire.NewSet(
	ProvideCipher,
	ProvideFraudScorer,
	ProvideRedisClient,
	ProvideBoundary,
	ProvideRateLimiter,
	ProvideErrorHandler,
)

var GatewaySet = wire.NewSet(
	ProvideGatewayManager,
	ProvideEscrowManager,
)

var CommandHandlerSet = wire.NewSet(
	ProvideCreateOrderHandler,
	ProvideProcessHandler,
	ProvideCancelHandler,
	ProvideRetryHandler,
	ProvideReconcileHandler,
	ProvideWebhookHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetPaymentHandler,
	ProvideGetOrderHandler,
	ProvideListPaymentsHandler,
	ProvideGetMyPaymentsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	SecuritySet,
	GatewaySet,
	CommandHandlerSet,
	QueryHandlerSet,
)
