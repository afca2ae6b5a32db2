package provider

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/internal/version"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"go.uber.org/zap"
)

// AlphaVantageBaseURL is the query endpoint of the Alpha Vantage API.
const AlphaVantageBaseURL = "https://www.alphavantage.co/query"

const (
	alphaVantageFunction = "TIME_SERIES_DAILY"

	keyErrorMessage = "Error Message"
	keyNote         = "Note"
	keyInformation  = "Information"
	keyMetaData     = "Meta Data"
	keyDailySeries  = "Time Series (Daily)"

	httpSnippetLength  = 200
	shapeSnippetLength = 500
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AlphaVantageClient fetches TIME_SERIES_DAILY data from Alpha Vantage.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	logger     *logger.Logger
}

// AlphaVantageOption is a configuration option for the Alpha Vantage client.
type AlphaVantageOption func(*AlphaVantageClient)

// WithBaseURL sets the query endpoint.
func WithBaseURL(baseURL string) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.httpClient = httpClient
	}
}

// WithHeader adds headers sent with each request.
func WithHeader(header http.Header) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithAlphaVantageLogger sets the logger. A nil logger is ignored.
func WithAlphaVantageLogger(l *logger.Logger) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewAlphaVantageClient creates a new Alpha Vantage client.
func NewAlphaVantageClient(apiKey string, opts ...AlphaVantageOption) (*AlphaVantageClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New(errors.ErrCodeMissingAPIKey, "alpha vantage api key is required")
	}

	client := &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    AlphaVantageBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		logger:     logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Name implements Provider.
func (c *AlphaVantageClient) Name() string {
	return string(ProviderAlphaVantage)
}

// Fetch implements Provider with a single GET request.
func (c *AlphaVantageClient) Fetch(ctx context.Context, req FetchRequest) (RawQuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return RawQuoteResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return RawQuoteResponse{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid base url %q", c.baseURL)
	}

	query := endpoint.Query()
	query.Set("function", alphaVantageFunction)
	query.Set("symbol", req.Symbol)
	query.Set("apikey", c.apiKey)
	query.Set("outputsize", string(req.OutputSize))
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return RawQuoteResponse{}, errors.Wrap(errors.ErrCodeFetchFailed, "failed to build request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	for key, values := range c.header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	c.logger.Debug("Fetching daily series",
		zap.String("provider", c.Name()),
		zap.String("symbol", req.Symbol),
		zap.String("output_size", string(req.OutputSize)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return RawQuoteResponse{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawQuoteResponse{}, classifyTransportError(ctx, err)
	}

	raw, err := ParseAlphaVantageResponse(resp.StatusCode, body)
	if err != nil {
		c.logger.Warn("Provider request failed",
			zap.String("provider", c.Name()),
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)

		return RawQuoteResponse{}, err
	}

	if raw.Metadata.Notice != "" {
		c.logger.Info("Provider notice",
			zap.String("provider", c.Name()),
			zap.String("notice", raw.Metadata.Notice),
		)
	}

	c.logger.Debug("Fetched daily series",
		zap.String("symbol", req.Symbol),
		zap.Int("records", raw.Series.Len()),
	)

	return raw, nil
}

// ParseAlphaVantageResponse classifies an Alpha Vantage response.
//
// Checks run in order: HTTP status, "Error Message", "Note", a premium "Information" notice,
// then the presence of the daily series. Downstream code never inspects raw keys again.
func ParseAlphaVantageResponse(statusCode int, body []byte) (RawQuoteResponse, error) {
	if statusCode != http.StatusOK {
		return RawQuoteResponse{}, errors.Wrap(
			errors.ErrCodeHTTPStatus,
			"unexpected http status",
			errors.NewHTTPStatusError(statusCode, snippet(body, httpSnippetLength)),
		)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(body, &document); err != nil || document == nil {
		return RawQuoteResponse{}, errors.Newf(errors.ErrCodeUnexpectedShape,
			"response is not a JSON object: %s", snippet(body, shapeSnippetLength))
	}

	if message, ok := document[keyErrorMessage]; ok {
		return RawQuoteResponse{}, errors.New(errors.ErrCodeProviderError, rawText(message))
	}

	if note, ok := document[keyNote]; ok {
		return RawQuoteResponse{}, errors.New(errors.ErrCodeRateLimited, rawText(note))
	}

	var notice string
	if information, ok := document[keyInformation]; ok {
		notice = rawText(information)
		if strings.Contains(strings.ToLower(notice), "premium") {
			return RawQuoteResponse{}, errors.New(errors.ErrCodeRequiresUpgrade, notice)
		}
	}

	seriesData, ok := document[keyDailySeries]
	if !ok {
		return RawQuoteResponse{}, errors.Newf(errors.ErrCodeUnexpectedShape,
			"response has no %q key: %s", keyDailySeries, snippet(body, shapeSnippetLength))
	}

	var series RawSeries
	if err := json.Unmarshal(seriesData, &series); err != nil {
		return RawQuoteResponse{}, errors.Wrapf(errors.ErrCodeUnexpectedShape, err,
			"malformed %q: %s", keyDailySeries, snippet(seriesData, shapeSnippetLength))
	}

	metadata := parseAlphaVantageMetadata(document[keyMetaData])
	metadata.Notice = notice

	return RawQuoteResponse{
		Metadata: metadata,
		Series:   series,
	}, nil
}

func parseAlphaVantageMetadata(data json.RawMessage) Metadata {
	var metadata Metadata
	if len(data) == 0 {
		return metadata
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return metadata
	}

	for key, value := range fields {
		text := rawText(value)

		switch strings.ToLower(FieldName(key)) {
		case "information":
			metadata.Information = text
		case "symbol":
			metadata.Symbol = text
		case "last refreshed":
			metadata.LastRefreshed = text
		case "output size":
			metadata.OutputSize = text
		case "time zone":
			metadata.TimeZone = text
		}
	}

	return metadata
}

// classifyTransportError maps a failed round trip to Timeout or FetchFailed.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, "request timed out", err)
	}

	return errors.Wrap(errors.ErrCodeFetchFailed, "request failed", err)
}
