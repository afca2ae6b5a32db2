package provider

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderAlphaVantage ProviderType = "alphavantage"
	ProviderPolygon      ProviderType = "polygon"
)

// OutputSize selects a limited or a full historical response.
type OutputSize string

const (
	// OutputSizeCompact returns the latest 100 daily bars.
	OutputSizeCompact OutputSize = "compact"
	// OutputSizeFull returns the full available history.
	OutputSizeFull OutputSize = "full"
)

// DefaultTimeout bounds a single fetch when the request does not set one.
const DefaultTimeout = 30 * time.Second

// ParseOutputSize validates an output size name.
func ParseOutputSize(value string) (OutputSize, error) {
	switch OutputSize(value) {
	case OutputSizeCompact, OutputSizeFull:
		return OutputSize(value), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOutputSize, "invalid output size %q, expected compact or full", value)
	}
}

// FetchRequest describes one daily time-series request.
type FetchRequest struct {
	Symbol     string        `validate:"required"`
	OutputSize OutputSize    `validate:"required,oneof=compact full"`
	Timeout    time.Duration `validate:"gte=0"`
}

// Validate checks the request fields.
func (r FetchRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid fetch request", err)
	}

	return nil
}

func (r FetchRequest) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}

	return r.Timeout
}

// Provider fetches raw daily time-series data from a quote service.
//
// Fetch issues exactly one logical request. It does not retry and does not cache.
// Every failure is returned as a *errors.Error carrying one of the fetch error codes.
type Provider interface {
	// Name returns the provider identifier, e.g. "alphavantage".
	Name() string
	// Fetch retrieves the daily series for the request.
	// The request timeout is applied on top of ctx.
	Fetch(ctx context.Context, req FetchRequest) (RawQuoteResponse, error)
}

// NewMarketDataProvider creates a provider of the given type authenticated with apiKey.
// A nil logger discards provider logs. showProgress only affects providers that page
// through results.
func NewMarketDataProvider(providerType ProviderType, apiKey string, log *logger.Logger, showProgress bool) (Provider, error) {
	switch providerType {
	case ProviderAlphaVantage:
		client, err := NewAlphaVantageClient(apiKey, WithAlphaVantageLogger(log))
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderPolygon:
		client, err := NewPolygonClient(apiKey, WithPolygonLogger(log), WithProgress(showProgress))
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
