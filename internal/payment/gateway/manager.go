package gateway

import (
	"fmt"
	"strings"

	"github.com/medsouq/marketplace/internal/currency"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/security"
	"github.com/medsouq/marketplace/pkg/logger"
)

// Manager loads active gateway configurations at startup, instantiates
// the matching adapter per provider, and selects gateways by supported
// currency. Adapters live for the life of the process.
type Manager struct {
	configs  map[uint]domain.GatewayConfig
	adapters map[uint]Adapter
}

// NewManager builds the adapter set from active configurations.
// Unknown providers are skipped with a warning so one bad row cannot
// take the whole payment service down. Credentials are decrypted with
// the platform cipher before adapters see them.
func NewManager(repo domain.GatewayConfigRepository, payments domain.PaymentRepository, cipher *security.Cipher) (*Manager, error) {
	configs, err := repo.FindActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway configs: %w", err)
	}

	m := &Manager{
		configs:  make(map[uint]domain.GatewayConfig),
		adapters: make(map[uint]Adapter),
	}

	for _, cfg := range configs {
		apiKey := ""
		if cfg.APIKeyEncrypted != "" {
			apiKey, err = cipher.Decrypt(cfg.APIKeyEncrypted)
			if err != nil {
				logger.Logger.Warn().
					Err(err).
					Str("provider", cfg.Provider).
					Uint("gateway_id", cfg.ID).
					Msg("Failed to decrypt gateway credentials, skipping")
				continue
			}
		}

		var adapter Adapter
		switch cfg.Provider {
		case domain.ProviderSadad, domain.ProviderMobicash:
			adapter = NewMobileMoneyAdapter(cfg.Provider, cfg.BaseURL, apiKey)
		case domain.ProviderCBL:
			adapter = NewBankTransferAdapter(cfg.Provider, cfg.BaseURL, payments)
		case domain.ProviderMoamalat:
			adapter = NewCardAdapter(cfg.Provider, cfg.BaseURL, apiKey)
		default:
			logger.Logger.Warn().
				Str("provider", cfg.Provider).
				Uint("gateway_id", cfg.ID).
				Msg("Unknown gateway provider, skipping")
			continue
		}

		m.configs[cfg.ID] = cfg
		m.adapters[cfg.ID] = adapter
		logger.Logger.Info().
			Str("provider", cfg.Provider).
			Str("type", cfg.Type).
			Uint("gateway_id", cfg.ID).
			Msg("Gateway adapter registered")
	}

	return m, nil
}

// Gateway returns the adapter for a gateway id.
func (m *Manager) Gateway(id uint) (Adapter, error) {
	adapter, ok := m.adapters[id]
	if !ok {
		return nil, fmt.Errorf("gateway %d is not available", id)
	}
	return adapter, nil
}

// Config returns the loaded configuration for a gateway id.
func (m *Manager) Config(id uint) (*domain.GatewayConfig, error) {
	cfg, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("gateway %d is not available", id)
	}
	return &cfg, nil
}

// ConfigByProvider returns the first loaded configuration for a
// provider name, used by the webhook endpoint to look up secrets.
func (m *Manager) ConfigByProvider(provider string) (*domain.GatewayConfig, error) {
	for _, cfg := range m.configs {
		if cfg.Provider == provider {
			return &cfg, nil
		}
	}
	return nil, fmt.Errorf("no active gateway for provider %s", provider)
}

// AvailableGateways lists gateways supporting the requested currency.
// The home currency always matches, an escape hatch so a misconfigured
// currency list cannot strand LYD buyers.
func (m *Manager) AvailableGateways(currencyCode string) []domain.GatewayConfig {
	var available []domain.GatewayConfig
	for _, cfg := range m.configs {
		if cfg.SupportsCurrency(currencyCode) || strings.EqualFold(currencyCode, currency.Home) {
			available = append(available, cfg)
		}
	}
	return available
}
