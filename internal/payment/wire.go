//go:build wireinject
// +build wireinject

package payment

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/payment/handler"
	"github.com/medsouq/marketplace/internal/payment/usecase/command"
)

// InitializeHandler initializes payment handler with all dependencies
func InitializeHandler(db *gorm.DB, cfg Config) (*handler.PaymentHandler, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewPaymentHandler,
	)
	return nil, nil
}

// InitializeReconciler initializes the batch reconciliation handler for the scheduler
func InitializeReconciler(db *gorm.DB, cfg Config) (*command.ReconcilePaymentsHandler, error) {
	wire.Build(
		ProvideOrderRepository,
		ProvidePaymentRepository,
		ProvideTransactionRepository,
		ProvideGatewayConfigRepository,
		ProvideEscrowRepository,
		ProvideCipher,
		ProvideGatewayManager,
		ProvideEscrowManager,
		ProvideReconcileHandler,
	)
	return nil, nil
}
