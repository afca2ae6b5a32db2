package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const (
	// compactBars matches the size of an Alpha Vantage compact response.
	compactBars     = 100
	compactLookback = 150 * 24 * time.Hour
	fullLookback    = 20
	maxAggsLimit    = 50000
)

// PolygonAggsIterator iterates over aggregate bars.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the Polygon SDK used to list aggregates.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIWrapper struct {
	client *polygon.Client
}

func (w *polygonAPIWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

// PolygonClient lists daily aggregates from Polygon.io and renders them as a raw daily series.
type PolygonClient struct {
	apiClient    PolygonAPIClient
	logger       *logger.Logger
	showProgress bool
	now          func() time.Time
}

// PolygonOption is a configuration option for the Polygon client.
type PolygonOption func(*PolygonClient)

// WithPolygonLogger sets the logger. A nil logger is ignored.
func WithPolygonLogger(l *logger.Logger) PolygonOption {
	return func(c *PolygonClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress renders a progress bar on stderr while aggregates are listed.
func WithProgress(show bool) PolygonOption {
	return func(c *PolygonClient) {
		c.showProgress = show
	}
}

// NewPolygonClient creates a new Polygon client backed by the Polygon SDK.
func NewPolygonClient(apiKey string, opts ...PolygonOption) (*PolygonClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New(errors.ErrCodeMissingAPIKey, "polygon api key is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIWrapper{client: polygon.New(apiKey)}, opts...), nil
}

// NewPolygonClientWithAPI creates a Polygon client over the given API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient, opts ...PolygonOption) *PolygonClient {
	client := &PolygonClient{
		apiClient:    apiClient,
		logger:       logger.NewNopLogger(),
		showProgress: false,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Name implements Provider.
func (c *PolygonClient) Name() string {
	return string(ProviderPolygon)
}

// Fetch implements Provider. Compact requests return the latest 100 daily bars,
// full requests cover the last 20 years. An empty result is an empty series.
func (c *PolygonClient) Fetch(ctx context.Context, req FetchRequest) (RawQuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return RawQuoteResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	params := c.aggsParams(req)

	c.logger.Debug("Listing daily aggregates",
		zap.String("provider", c.Name()),
		zap.String("symbol", req.Symbol),
		zap.String("output_size", string(req.OutputSize)),
	)

	bar := c.progressBar(req)

	series := RawSeries{}
	iter := c.apiClient.ListAggs(ctx, params)

	for iter.Next() {
		series = append(series, renderAgg(iter.Item()))

		if bar != nil {
			_ = bar.Add(1)
		}

		if req.OutputSize == OutputSizeCompact && len(series) >= compactBars {
			break
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if err := iter.Err(); err != nil {
		classified := classifyPolygonError(ctx, err)
		c.logger.Warn("Provider request failed",
			zap.String("provider", c.Name()),
			zap.String("symbol", req.Symbol),
			zap.Error(classified),
		)

		return RawQuoteResponse{}, classified
	}

	c.logger.Debug("Listed daily aggregates",
		zap.String("symbol", req.Symbol),
		zap.Int("records", len(series)),
	)

	return RawQuoteResponse{
		Metadata: Metadata{
			Information:   "Daily aggregates",
			Symbol:        req.Symbol,
			LastRefreshed: c.now().UTC().Format(types.DateLayout),
			OutputSize:    string(req.OutputSize),
			TimeZone:      "UTC",
		},
		Series: series,
	}, nil
}

func (c *PolygonClient) aggsParams(req FetchRequest) *models.ListAggsParams {
	to := c.now().UTC()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		To:         models.Millis(to),
	}

	if req.OutputSize == OutputSizeCompact {
		params.From = models.Millis(to.Add(-compactLookback))

		return params.WithOrder(models.Desc).WithLimit(compactBars)
	}

	params.From = models.Millis(to.AddDate(-fullLookback, 0, 0))

	return params.WithOrder(models.Asc).WithLimit(maxAggsLimit)
}

func (c *PolygonClient) progressBar(req FetchRequest) *progressbar.ProgressBar {
	if !c.showProgress {
		return nil
	}

	total := -1
	if req.OutputSize == OutputSizeCompact {
		total = compactBars
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", req.Symbol)),
		progressbar.OptionShowCount(),
	)
}

// renderAgg converts an aggregate into a textual daily record keyed by its UTC date.
func renderAgg(agg models.Agg) RawRecord {
	return RawRecord{
		Date: time.Time(agg.Timestamp).UTC().Format(types.DateLayout),
		Fields: map[string]string{
			"open":   formatFloat(agg.Open),
			"high":   formatFloat(agg.High),
			"low":    formatFloat(agg.Low),
			"close":  formatFloat(agg.Close),
			"volume": formatFloat(agg.Volume),
		},
	}
}

func formatFloat(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}

	return strconv.FormatFloat(value, 'f', -1, 64)
}

// classifyPolygonError maps SDK errors onto the fetch error codes.
func classifyPolygonError(ctx context.Context, err error) error {
	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusTooManyRequests:
			return errors.Wrap(errors.ErrCodeRateLimited, "polygon rate limit reached", err)
		case http.StatusForbidden:
			return errors.Wrap(errors.ErrCodeRequiresUpgrade, "polygon plan does not include this data", err)
		default:
			return errors.Wrap(errors.ErrCodeProviderError, "polygon returned an error", err)
		}
	}

	return classifyTransportError(ctx, err)
}
