package main

// @title Pricing Service API
// @version 1.0
// @description Medical service pricing engine with advisory oracle, rule fallback and ICD-11 terminology lookup
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@medsouq.ly

// @host localhost:8084
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Pricing
// @tag.description Price calculation and history endpoints
