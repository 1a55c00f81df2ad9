package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/internal/payment/payerrors"
	"github.com/medsouq/marketplace/internal/payment/usecase/command"
	"github.com/medsouq/marketplace/internal/payment/usecase/query"
	"github.com/medsouq/marketplace/internal/security"
	"github.com/medsouq/marketplace/pkg/logger"
)

// PaymentHandler handles HTTP requests for orders and payments using
// CQRS pattern
type PaymentHandler struct {
	// Command handlers
	createOrderHandler *command.CreateOrderWithPaymentHandler
	processHandler     *command.ProcessOrderPaymentHandler
	cancelHandler      *command.CancelOrderWithRefundHandler
	retryHandler       *command.RetryPaymentHandler
	reconcileHandler   *command.ReconcilePaymentsHandler
	webhookHandler     *command.HandleWebhookHandler

	// Query handlers
	getHandler      *query.GetPaymentHandler
	getOrderHandler *query.GetOrderHandler
	listHandler     *query.ListPaymentsHandler
	getMyHandler    *query.GetMyPaymentsHandler

	manager *gateway.Manager

	// limiter throttles payment attempts per user; nil disables the
	// throttle (tests, degraded config).
	limiter *security.RateLimiter
}

// NewPaymentHandler creates a new payment handler using dependency
// injection
func NewPaymentHandler(
	createOrderHandler *command.CreateOrderWithPaymentHandler,
	processHandler *command.ProcessOrderPaymentHandler,
	cancelHandler *command.CancelOrderWithRefundHandler,
	retryHandler *command.RetryPaymentHandler,
	reconcileHandler *command.ReconcilePaymentsHandler,
	webhookHandler *command.HandleWebhookHandler,
	getHandler *query.GetPaymentHandler,
	getOrderHandler *query.GetOrderHandler,
	listHandler *query.ListPaymentsHandler,
	getMyHandler *query.GetMyPaymentsHandler,
	manager *gateway.Manager,
	limiter *security.RateLimiter,
) *PaymentHandler {
	return &PaymentHandler{
		createOrderHandler: createOrderHandler,
		processHandler:     processHandler,
		cancelHandler:      cancelHandler,
		retryHandler:       retryHandler,
		reconcileHandler:   reconcileHandler,
		webhookHandler:     webhookHandler,
		getHandler:         getHandler,
		getOrderHandler:    getOrderHandler,
		listHandler:        listHandler,
		getMyHandler:       getMyHandler,
		manager:            manager,
		limiter:            limiter,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateOrder handles POST /api/orders
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "User ID not found in context",
		})
		return
	}

	var req struct {
		SellerID        uint   `json:"seller_id"`
		Currency        string `json:"currency"`
		PaymentMethodID uint   `json:"payment_method_id"`
		Items           []struct {
			ListingID uint    `json:"listing_id"`
			Quantity  int     `json:"quantity"`
			UnitPrice float64 `json:"unit_price"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.CreateOrderWithPaymentCommand{
		BuyerID:         userID,
		SellerID:        req.SellerID,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, command.OrderItemInput{
			ListingID: item.ListingID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, payment, err := h.createOrderHandler.Handle(cmd)
	if err != nil {
		logger.Logger.Warn().Err(err).Uint("buyer_id", userID).Msg("Failed to create order")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Order created successfully",
		Data: map[string]interface{}{
			"order":   order,
			"payment": payment,
		},
	})
}

// PayOrder handles POST /api/orders/{id}/pay
func (h *PaymentHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}
	if !h.allowAttempt(w, r) {
		return
	}

	var req struct {
		UserCity  string `json:"user_city"`
		ReturnURL string `json:"return_url"`
	}
	if r.Body != nil {
		// Body is optional; a bare POST pays with defaults.
		json.NewDecoder(r.Body).Decode(&req)
	}

	result, perr := h.processHandler.Handle(r.Context(), command.ProcessOrderPaymentCommand{
		OrderID:   orderID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		UserCity:  req.UserCity,
		ReturnURL: req.ReturnURL,
	})
	if perr != nil {
		respondPaymentError(w, perr)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Payment " + result.Status,
		Data:    result,
	})
}

// CancelOrder handles POST /api/orders/{id}/cancel
func (h *PaymentHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}
	userID, _ := r.Context().Value(UserIDKey).(uint)

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	order, refund, err := h.cancelHandler.Handle(r.Context(), command.CancelOrderWithRefundCommand{
		OrderID:     orderID,
		RequestedBy: userID,
		Reason:      req.Reason,
	})
	if err != nil {
		logger.Logger.Warn().Err(err).Uint("order_id", orderID).Msg("Failed to cancel order")
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order cancelled successfully",
		Data: map[string]interface{}{
			"order":  order,
			"refund": refund,
		},
	})
}

// RetryPayment handles POST /api/payments/{id}/retry
func (h *PaymentHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}
	if !h.allowAttempt(w, r) {
		return
	}

	var req struct {
		UserCity  string `json:"user_city"`
		ReturnURL string `json:"return_url"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	result, perr := h.retryHandler.Handle(r.Context(), command.RetryPaymentCommand{
		PaymentID: paymentID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		UserCity:  req.UserCity,
		ReturnURL: req.ReturnURL,
	})
	if perr != nil {
		respondPaymentError(w, perr)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Payment " + result.Status,
		Data:    result,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *PaymentHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "Invalid order ID")
	if !ok {
		return
	}

	detail, err := h.getOrderHandler.Handle(query.GetOrderQuery{OrderID: orderID})
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Order not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}

	detail, err := h.getHandler.Handle(query.GetPaymentQuery{PaymentID: paymentID})
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Payment not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}

// ListPayments handles GET /api/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.listHandler.Handle(query.ListPaymentsQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to list payments")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list payments",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// GetMyPayments handles GET /api/payments/my (authenticated user)
func (h *PaymentHandler) GetMyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "User ID not found in context",
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.getMyHandler.Handle(query.GetMyPaymentsQuery{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to get user payments")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get payments",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// ReconcilePayment handles PATCH /api/payments/{id}/reconcile
func (h *PaymentHandler) ReconcilePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}

	var req struct {
		Received bool   `json:"received"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	payment, err := h.reconcileHandler.ConfirmBankTransfer(r.Context(), paymentID, req.Received, req.Note)
	if err != nil {
		logger.Logger.Error().Err(err).Uint("payment_id", paymentID).Msg("Failed to reconcile payment")
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Payment reconciled",
		Data:    payment,
	})
}

// ListGateways handles GET /api/gateways
func (h *PaymentHandler) ListGateways(w http.ResponseWriter, r *http.Request) {
	currencyCode := r.URL.Query().Get("currency")
	gateways := h.manager.AvailableGateways(currencyCode)

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"gateways": gateways,
			"total":    len(gateways),
		},
	})
}

// HandleWebhook handles POST /api/webhooks/{gateway}
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["gateway"]

	cfg, err := h.manager.ConfigByProvider(provider)
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Unknown gateway",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Unable to read request body",
		})
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if !security.VerifyWebhookSignature(cfg.WebhookSecret, body, signature) {
		logger.Logger.Warn().Str("provider", provider).Msg("Webhook signature verification failed")
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "Invalid signature",
		})
		return
	}

	var payload struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.TransactionID == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid webhook payload",
		})
		return
	}

	payment, err := h.webhookHandler.Handle(r.Context(), command.WebhookCommand{
		Provider:    provider,
		GatewayTxID: payload.TransactionID,
		Status:      payload.Status,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Str("provider", provider).Str("gateway_tx_id", payload.TransactionID).Msg("Failed to apply webhook")
		respondJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   "Unable to process webhook",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"status":     payment.Status,
		},
	})
}

// RegisterRoutes registers all order and payment routes
func (h *PaymentHandler) RegisterRoutes(router *mux.Router) {
	// Authenticated user routes (any logged-in user)
	router.HandleFunc("/api/orders", AuthMiddleware(h.CreateOrder)).Methods("POST")
	router.HandleFunc("/api/orders/{id}", AuthMiddleware(h.GetOrder)).Methods("GET")
	router.HandleFunc("/api/orders/{id}/pay", AuthMiddleware(h.PayOrder)).Methods("POST")
	router.HandleFunc("/api/orders/{id}/cancel", AuthMiddleware(h.CancelOrder)).Methods("POST")
	router.HandleFunc("/api/payments/my", AuthMiddleware(h.GetMyPayments)).Methods("GET")
	router.HandleFunc("/api/payments/{id}/retry", AuthMiddleware(h.RetryPayment)).Methods("POST")
	router.HandleFunc("/api/gateways", h.ListGateways).Methods("GET")

	// Admin routes (require admin role)
	router.HandleFunc("/api/payments", AdminMiddleware(h.ListPayments)).Methods("GET")
	router.HandleFunc("/api/payments/{id}", AdminMiddleware(h.GetPayment)).Methods("GET")
	router.HandleFunc("/api/payments/{id}/reconcile", AdminMiddleware(h.ReconcilePayment)).Methods("PATCH")

	// Provider callbacks authenticate with an HMAC signature instead of
	// a bearer token.
	router.HandleFunc("/api/webhooks/{gateway}", h.HandleWebhook).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint
func (h *PaymentHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Payment service is healthy",
		})
	}).Methods("GET")
}

// allowAttempt applies the per-user payment attempt throttle, writing
// a 429 when the window is spent.
func (h *PaymentHandler) allowAttempt(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	userID, _ := r.Context().Value(UserIDKey).(uint)
	if h.limiter.Allow(r.Context(), fmt.Sprintf("pay:%d", userID)) {
		return true
	}
	respondJSON(w, http.StatusTooManyRequests, Response{
		Success: false,
		Error:   "Too many payment attempts, try again shortly",
	})
	return false
}

// pathID parses the uint path variable or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name, errMsg string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   errMsg,
		})
		return 0, false
	}
	return uint(id), true
}

// clientIP prefers the forwarded address set by the gateway.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// respondPaymentError maps the error taxonomy onto HTTP statuses and
// keeps the raw cause out of the response.
func respondPaymentError(w http.ResponseWriter, perr *payerrors.PaymentError) {
	status := http.StatusUnprocessableEntity
	switch perr.Kind {
	case payerrors.KindValidation:
		status = http.StatusBadRequest
	case payerrors.KindDuplicateTransaction:
		status = http.StatusConflict
	case payerrors.KindFraudDetected, payerrors.KindComplianceViolation:
		status = http.StatusForbidden
	case payerrors.KindTimeout, payerrors.KindNetwork, payerrors.KindGateway:
		status = http.StatusBadGateway
	}

	respondJSON(w, status, Response{
		Success: false,
		Error:   perr.UserMessage,
		Data:    perr,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
