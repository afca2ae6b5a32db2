package marketdata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quotes/internal/version"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// Environment variables read when a value is not set explicitly.
const (
	EnvAlphaVantageAPIKey = "ALPHAVANTAGE_API_KEY"
	EnvPolygonAPIKey      = "POLYGON_API_KEY"
	EnvLogLevel           = "QUOTES_LOG_LEVEL"
)

// OutputConfig lists the files written by an ingestion run.
type OutputConfig struct {
	JSON    string `yaml:"json" json:"json" jsonschema:"title=JSON Path,description=Path of the JSON array output,default=quotes.json" validate:"required"`
	CSV     string `yaml:"csv" json:"csv" jsonschema:"title=CSV Path,description=Path of the CSV table output,default=quotes.csv" validate:"required"`
	Parquet string `yaml:"parquet,omitempty" json:"parquet,omitempty" jsonschema:"title=Parquet Path,description=Optional path of a Parquet export"`
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty" jsonschema:"title=Summary Path,description=Optional path of the YAML run summary"`
}

// IngestConfig is the file-level configuration of one ingestion run.
type IngestConfig struct {
	Version    string       `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Tool version the config was written for (e.g. 0.3.0)"`
	Provider   string       `yaml:"provider" json:"provider" jsonschema:"title=Provider,description=Quote provider,enum=alphavantage,enum=polygon,default=alphavantage" validate:"required,oneof=alphavantage polygon"`
	Symbol     string       `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Ticker symbol to fetch (e.g. IBM),required" validate:"required"`
	OutputSize string       `yaml:"outputSize" json:"outputSize" jsonschema:"title=Output Size,description=compact returns the latest 100 days and full the whole history,enum=compact,enum=full,default=compact" validate:"required,oneof=compact full"`
	APIKey     string       `yaml:"apiKey,omitempty" json:"apiKey,omitempty" jsonschema:"title=API Key,description=Provider API key. Falls back to ALPHAVANTAGE_API_KEY or POLYGON_API_KEY" validate:"required"`
	Timeout    string       `yaml:"timeout" json:"timeout" jsonschema:"title=Timeout,description=Request timeout as a Go duration,default=30s" validate:"required"`
	Timezone   string       `yaml:"timezone" json:"timezone" jsonschema:"title=Timezone,description=IANA location used to anchor dates,default=UTC" validate:"required"`
	LogLevel   string       `yaml:"logLevel,omitempty" json:"logLevel,omitempty" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
	Output     OutputConfig `yaml:"output" json:"output" jsonschema:"title=Output"`
}

// DefaultIngestConfig returns the configuration used when no file is given.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Version:    "",
		Provider:   string(provider.ProviderAlphaVantage),
		Symbol:     "",
		OutputSize: string(provider.OutputSizeCompact),
		APIKey:     "",
		Timeout:    provider.DefaultTimeout.String(),
		Timezone:   "UTC",
		LogLevel:   "info",
		Output: OutputConfig{
			JSON:    "quotes.json",
			CSV:     "quotes.csv",
			Parquet: "",
			Summary: "",
		},
	}
}

// ParseIngestConfig decodes YAML (or JSON) over the defaults.
func ParseIngestConfig(data []byte) (*IngestConfig, error) {
	config := DefaultIngestConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return &config, nil
}

// LoadIngestConfig reads a config file. An empty path yields the defaults.
// The result is not validated, so callers can still apply flags and environment.
func LoadIngestConfig(path string) (*IngestConfig, error) {
	if path == "" {
		config := DefaultIngestConfig()

		return &config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseIngestConfig(data)
}

// ApplyEnv fills unset values from the environment.
func (c *IngestConfig) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if c.APIKey == "" {
		if info, err := GetProviderInfo(c.Provider); err == nil && info.APIKeyEnv != "" {
			c.APIKey = getenv(info.APIKeyEnv)
		}
	}

	if level := getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

// Validate checks the config fields, its declared version, timeout and timezone.
func (c *IngestConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "incompatible config version", err)
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration parses the timeout. It must be positive.
func (c *IngestConfig) TimeoutDuration() (time.Duration, error) {
	timeout, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid timeout %q", c.Timeout)
	}

	if timeout <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidConfiguration, "timeout must be positive, got %s", c.Timeout)
	}

	return timeout, nil
}

// Location loads the configured timezone.
func (c *IngestConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid timezone %q", c.Timezone)
	}

	return loc, nil
}

// ToClientConfig converts a validated config into a ClientConfig and IngestParams.
func (c *IngestConfig) ToClientConfig() (ClientConfig, IngestParams, error) {
	if err := c.Validate(); err != nil {
		return ClientConfig{}, IngestParams{}, err
	}

	// Validate already parsed both values
	timeout, _ := c.TimeoutDuration()
	loc, _ := c.Location()

	config := ClientConfig{
		ProviderType: provider.ProviderType(c.Provider),
		APIKey:       c.APIKey,
		Timeout:      timeout,
		Location:     loc,
		JSONPath:     c.Output.JSON,
		CSVPath:      c.Output.CSV,
		ParquetPath:  c.Output.Parquet,
		SummaryPath:  c.Output.Summary,
	}

	params := IngestParams{
		Symbol:     c.Symbol,
		OutputSize: provider.OutputSize(c.OutputSize),
	}

	return config, params, nil
}

// String renders the config as YAML with the API key masked.
func (c IngestConfig) String() string {
	if c.APIKey != "" {
		c.APIKey = "****"
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", struct{ Provider, Symbol string }{c.Provider, c.Symbol})
	}

	return string(data)
}
