package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	// Swagger UI
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateOrder godoc
// @Summary Create an order
// @Description Create an order with its pending payment (Authenticated users)
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{seller_id=int,currency=string,payment_method_id=int,items=array} true "Order data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/orders [post]
func (h *PaymentHandler) CreateOrderDoc() {}

// PayOrder godoc
// @Summary Pay an order
// @Description Run the payment for an order through its gateway (Authenticated users)
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body object{user_city=string,return_url=string} false "Payment context"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Failure 502 {object} object{success=bool,error=string}
// @Router /api/orders/{id}/pay [post]
func (h *PaymentHandler) PayOrderDoc() {}

// CancelOrder godoc
// @Summary Cancel an order
// @Description Cancel an order, refunding its payment when already settled (Authenticated users)
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body object{reason=string} false "Cancellation reason"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/orders/{id}/cancel [post]
func (h *PaymentHandler) CancelOrderDoc() {}

// RetryPayment godoc
// @Summary Retry a payment
// @Description Re-run a failed payment attempt within its retry budget (Authenticated users)
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 422 {object} object{success=bool,error=string}
// @Router /api/payments/{id}/retry [post]
func (h *PaymentHandler) RetryPaymentDoc() {}

// GetPayment godoc
// @Summary Get payment by ID
// @Description Get a payment with its transaction ledger (Admin only)
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/payments/{id} [get]
func (h *PaymentHandler) GetPaymentDoc() {}

// ListPayments godoc
// @Summary List all payments
// @Description Get a list of all payments with pagination (Admin only)
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{payments=array,total=int}}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/payments [get]
func (h *PaymentHandler) ListPaymentsDoc() {}

// GetMyPayments godoc
// @Summary Get my payments
// @Description Get payments for the authenticated user
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{payments=array,total=int}}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/payments/my [get]
func (h *PaymentHandler) GetMyPaymentsDoc() {}

// ReconcilePayment godoc
// @Summary Reconcile a bank transfer
// @Description Confirm or deny that an offline bank transfer arrived (Admin only)
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Param request body object{received=bool,note=string} true "Reconciliation decision"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/payments/{id}/reconcile [patch]
func (h *PaymentHandler) ReconcilePaymentDoc() {}

// ListGateways godoc
// @Summary List available gateways
// @Description List active payment gateways, optionally filtered by currency
// @Tags Gateways
// @Produce json
// @Param currency query string false "ISO currency code"
// @Success 200 {object} object{success=bool,data=object{gateways=array,total=int}}
// @Router /api/gateways [get]
func (h *PaymentHandler) ListGatewaysDoc() {}

// HandleWebhook godoc
// @Summary Provider webhook
// @Description Apply an HMAC-signed provider callback to its payment
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param gateway path string true "Provider name"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 422 {object} object{success=bool,error=string}
// @Router /api/webhooks/{gateway} [post]
func (h *PaymentHandler) HandleWebhookDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *PaymentHandler) HealthCheckDoc() {}
