package marketdata

import (
	"slices"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-quotes/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name" yaml:"name"`
	DisplayName  string `json:"displayName" yaml:"display_name"`
	Description  string `json:"description" yaml:"description"`
	RequiresAuth bool   `json:"requiresAuth" yaml:"requires_auth"`
	// APIKeyEnv is the environment variable consulted when no key is configured.
	APIKeyEnv string `json:"apiKeyEnv" yaml:"api_key_env"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderAlphaVantage: {
		Name:         string(provider.ProviderAlphaVantage),
		DisplayName:  "Alpha Vantage",
		Description:  "Daily OHLCV time series from the Alpha Vantage TIME_SERIES_DAILY endpoint",
		RequiresAuth: true,
		APIKeyEnv:    EnvAlphaVantageAPIKey,
	},
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market daily aggregates from Polygon.io",
		RequiresAuth: true,
		APIKeyEnv:    EnvPolygonAPIKey,
	},
}

// GetSupportedProviders returns all supported provider names in alphabetical order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetIngestConfigSchema returns the JSON schema of the ingestion config file.
func GetIngestConfigSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.GetSchemaFromConfig(IngestConfig{})
}
