package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration for the ingestion client.
type ClientConfig struct {
	ProviderType provider.ProviderType `validate:"required,oneof=alphavantage polygon"`
	APIKey       string                `validate:"required"`
	Timeout      time.Duration         `validate:"gte=0"`
	// Location anchors candle dates. Nil means UTC.
	Location    *time.Location
	JSONPath    string `validate:"required"`
	CSVPath     string `validate:"required"`
	ParquetPath string
	SummaryPath string
	// ShowProgress renders a progress bar on stderr for paging providers.
	ShowProgress bool
}

// IngestParams holds the parameters of one ingestion request.
type IngestParams struct {
	Symbol     string              `validate:"required"`
	OutputSize provider.OutputSize `validate:"required,oneof=compact full"`
}

// IngestResult is what a successful run produced.
type IngestResult struct {
	Series  types.CandleSeries
	Summary types.IngestSummary
	// Skipped lists raw records dropped during normalization.
	Skipped []*errors.RecordError
	// Issues lists soft data-quality flags on persisted candles.
	Issues []types.QualityIssue
}

// Client fetches a daily series from a provider, normalizes it and persists it.
type Client struct {
	provider provider.Provider
	config   ClientConfig
	validate *validator.Validate
	logger   *logger.Logger
	writers  []writer.MarketDataWriter
	now      func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithWriters replaces the writers derived from the config paths.
func WithWriters(writers ...writer.MarketDataWriter) ClientOption {
	return func(c *Client) {
		c.writers = writers
	}
}

// WithClock overrides the clock used for the fetched-at timestamp.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates an ingestion client whose provider is built from the config.
func NewClient(config ClientConfig, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.APIKey, log, config.ShowProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", config.ProviderType, err)
	}

	return NewClientWithProvider(marketProvider, config, log, opts...)
}

// NewClientWithProvider creates an ingestion client around an existing provider.
// The API key and provider type of config are not used.
func NewClientWithProvider(marketProvider provider.Provider, config ClientConfig, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	if marketProvider == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "provider is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if config.Location == nil {
		config.Location = time.UTC
	}

	client := &Client{
		provider: marketProvider,
		config:   config,
		validate: validator.New(),
		logger:   log,
		writers:  nil,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.writers == nil {
		if config.JSONPath == "" || config.CSVPath == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "json and csv output paths are required")
		}

		client.writers = client.defaultWriters()
	}

	return client, nil
}

func (c *Client) defaultWriters() []writer.MarketDataWriter {
	writers := []writer.MarketDataWriter{
		writer.NewJSONWriter(c.config.JSONPath),
		writer.NewCSVWriter(c.config.CSVPath, c.config.Location),
	}

	if c.config.ParquetPath != "" {
		writers = append(writers, writer.NewDuckDBWriter(c.config.ParquetPath, c.config.Location))
	}

	return writers
}

// Ingest runs fetch, normalize and persist once.
// A fetch error is returned unchanged and no file is written.
// Writers run in order and stop at the first failure. Outputs of the writers that
// already finished stay on disk; each writer replaces its whole file, so a retry
// overwrites them.
func (c *Client) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid ingest parameters", err)
	}

	raw, err := c.provider.Fetch(ctx, provider.FetchRequest{
		Symbol:     params.Symbol,
		OutputSize: params.OutputSize,
		Timeout:    c.config.Timeout,
	})
	if err != nil {
		return nil, err
	}

	fetchedAt := c.now().UTC()

	normalized := Normalize(raw, NormalizeOptions{Location: c.config.Location})
	c.logNormalization(params.Symbol, normalized)

	outputs := make([]string, 0, len(c.writers)+1)

	for _, w := range c.writers {
		if err := prepareDir(w.GetOutputPath()); err != nil {
			return nil, err
		}

		outputPath, err := writer.WriteSeries(w, normalized.Series)
		if err != nil {
			return nil, err
		}

		outputs = append(outputs, outputPath)
	}

	summary := types.IngestSummary{
		ID:             uuid.New().String(),
		FetchedAt:      fetchedAt,
		Provider:       c.provider.Name(),
		Symbol:         params.Symbol,
		OutputSize:     string(params.OutputSize),
		SkippedRecords: len(normalized.Skipped),
		QualityIssues:  len(normalized.Issues),
		Outputs:        outputs,
	}
	summary.ApplySeriesSummary(normalized.Series.Summary(), c.config.Location)

	if c.config.SummaryPath != "" {
		if err := prepareDir(c.config.SummaryPath); err != nil {
			return nil, err
		}

		if err := types.WriteIngestSummary(c.config.SummaryPath, summary); err != nil {
			return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to write summary", err)
		}

		summary.Outputs = append(summary.Outputs, c.config.SummaryPath)
	}

	c.logger.Info("Ingestion completed",
		zap.String("run_id", summary.ID),
		zap.String("provider", summary.Provider),
		zap.String("symbol", summary.Symbol),
		zap.Int("count", summary.Count),
		zap.String("first", summary.FirstDate),
		zap.String("last", summary.LastDate),
		zap.Int("skipped", summary.SkippedRecords),
		zap.Int("quality_issues", summary.QualityIssues),
	)

	return &IngestResult{
		Series:  normalized.Series,
		Summary: summary,
		Skipped: normalized.Skipped,
		Issues:  normalized.Issues,
	}, nil
}

func (c *Client) logNormalization(symbol string, result NormalizeResult) {
	for _, skipped := range result.Skipped {
		c.logger.Warn("Skipping malformed record",
			zap.String("symbol", symbol),
			zap.String("date", skipped.Date),
			zap.String("field", skipped.Field),
			zap.String("value", skipped.Value),
			zap.Error(skipped),
		)
	}

	for _, issue := range result.Issues {
		c.logger.Warn("Data quality issue",
			zap.String("symbol", symbol),
			zap.String("kind", string(issue.Kind)),
			zap.String("issue", issue.String()),
		)
	}
}

// prepareDir creates the parent directory of path when it is missing.
func prepareDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create directory %s", dir)
	}

	return nil
}
