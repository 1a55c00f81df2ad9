package config

import (
	"os"
	"strings"
	"time"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name        string
	BaseURL     string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port     string
	Services map[string]ServiceConfig
}

// LoadConfig loads the gateway configuration
func LoadConfig() *GatewayConfig {
	return &GatewayConfig{
		Port: getEnv("GATEWAY_PORT", "8000"),
		Services: map[string]ServiceConfig{
			"payment": {
				Name:        "payment-service",
				BaseURL:     getEnv("PAYMENT_SERVICE_URL", "http://localhost:8083"),
				Instances:   getInstances("PAYMENT_SERVICE_URLS", getEnv("PAYMENT_SERVICE_URL", "http://localhost:8083")),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
			"pricing": {
				Name:        "pricing-service",
				BaseURL:     getEnv("PRICING_SERVICE_URL", "http://localhost:8084"),
				Instances:   getInstances("PRICING_SERVICE_URLS", getEnv("PRICING_SERVICE_URL", "http://localhost:8084")),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
		},
	}
}

// getInstances reads a comma-separated instance list, falling back to a
// single instance when the list variable is not set.
func getInstances(key, fallback string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return []string{fallback}
	}

	var instances []string
	for _, url := range strings.Split(raw, ",") {
		url = strings.TrimSpace(url)
		if url != "" {
			instances = append(instances, url)
		}
	}
	if len(instances) == 0 {
		return []string{fallback}
	}
	return instances
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
