package main

// @title Payment Service API
// @version 1.0
// @description Order and payment orchestration for the healthcare B2B marketplace (gateways, escrow, refunds, webhooks)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@medsouq.ly

// @host localhost:8083
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Orders
// @tag.description Order creation, payment and cancellation

// @tag.name Payments
// @tag.description Payment queries, retries and reconciliation

// @tag.name Gateways
// @tag.description Available payment gateways

// @tag.name Webhooks
// @tag.description Provider callback endpoints

// @tag.name Health
// @tag.description Health check endpoints
