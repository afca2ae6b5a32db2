package provider_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/testhelper/mockserver"
	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/internal/version"
	"github.com/rxtech-lab/argo-quotes/mocks"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const dailyBody = `{
    "Meta Data": {
        "1. Information": "Daily Prices (open, high, low, close) and Volumes",
        "2. Symbol": "IBM",
        "3. Last Refreshed": "2024-01-03",
        "4. Output Size": "Compact",
        "5. Time Zone": "US/Eastern"
    },
    "Time Series (Daily)": {
        "2024-01-03": {"1. open": "185.5", "2. high": "187.0", "3. low": "185.0", "4. close": "186.5", "5. volume": "900000"},
        "2024-01-02": {"1. open": "185.0", "2. high": "186.0", "3. low": "184.5", "4. close": "185.5", "5. volume": "1000000"}
    }
}`

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type AlphaVantageTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	httpClient *mocks.MockHTTPClient
}

func TestAlphaVantageSuite(t *testing.T) {
	suite.Run(t, new(AlphaVantageTestSuite))
}

func (suite *AlphaVantageTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.httpClient = mocks.NewMockHTTPClient(suite.ctrl)
}

func (suite *AlphaVantageTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *AlphaVantageTestSuite) newClient(opts ...provider.AlphaVantageOption) *provider.AlphaVantageClient {
	opts = append([]provider.AlphaVantageOption{provider.WithHTTPClient(suite.httpClient)}, opts...)

	client, err := provider.NewAlphaVantageClient("demo", opts...)
	suite.Require().NoError(err)

	return client
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func compactRequest(symbol string) provider.FetchRequest {
	return provider.FetchRequest{Symbol: symbol, OutputSize: provider.OutputSizeCompact, Timeout: 0}
}

func (suite *AlphaVantageTestSuite) TestNewAlphaVantageClientRequiresKey() {
	_, err := provider.NewAlphaVantageClient("")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingAPIKey))
}

func (suite *AlphaVantageTestSuite) TestFetchBuildsRequest() {
	suite.httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			suite.Equal(http.MethodGet, req.Method)
			suite.Equal("example.test", req.URL.Host)
			suite.Equal("/query", req.URL.Path)

			query := req.URL.Query()
			suite.Equal("TIME_SERIES_DAILY", query.Get("function"))
			suite.Equal("IBM", query.Get("symbol"))
			suite.Equal("demo", query.Get("apikey"))
			suite.Equal("full", query.Get("outputsize"))

			suite.Equal("application/json", req.Header.Get("Accept"))
			suite.Equal(version.UserAgent(), req.Header.Get("User-Agent"))
			suite.Equal("trace-1", req.Header.Get("X-Request-Id"))

			deadline, ok := req.Context().Deadline()
			suite.True(ok)
			suite.WithinDuration(time.Now().Add(provider.DefaultTimeout), deadline, 5*time.Second)

			return response(http.StatusOK, dailyBody), nil
		})

	client := suite.newClient(
		provider.WithBaseURL("https://example.test/query"),
		provider.WithHeader(http.Header{"X-Request-Id": []string{"trace-1"}}),
	)

	raw, err := client.Fetch(context.Background(), provider.FetchRequest{Symbol: "IBM", OutputSize: provider.OutputSizeFull})
	suite.Require().NoError(err)
	suite.Equal(2, raw.Series.Len())
}

func (suite *AlphaVantageTestSuite) TestFetchSuccess() {
	suite.httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, dailyBody), nil)

	raw, err := suite.newClient().Fetch(context.Background(), compactRequest("IBM"))
	suite.Require().NoError(err)

	suite.Equal("IBM", raw.Metadata.Symbol)
	suite.Equal("2024-01-03", raw.Metadata.LastRefreshed)
	suite.Equal("Compact", raw.Metadata.OutputSize)
	suite.Equal("US/Eastern", raw.Metadata.TimeZone)
	suite.Empty(raw.Metadata.Notice)

	suite.Require().Equal(2, raw.Series.Len())
	suite.Equal("2024-01-03", raw.Series[0].Date)

	open, ok := raw.Series[1].Lookup("open")
	suite.True(ok)
	suite.Equal("185.0", open)
}

func (suite *AlphaVantageTestSuite) TestFetchClassification() {
	testCases := []struct {
		name    string
		status  int
		body    string
		code    errors.ErrorCode
		message string
	}{
		{
			name:   "http status",
			status: http.StatusServiceUnavailable,
			body:   "Service Unavailable",
			code:   errors.ErrCodeHTTPStatus,
		},
		{
			name:    "provider error",
			status:  http.StatusOK,
			body:    `{"Error Message": "Invalid API call."}`,
			code:    errors.ErrCodeProviderError,
			message: "Invalid API call.",
		},
		{
			name:    "rate limited",
			status:  http.StatusOK,
			body:    `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
			code:    errors.ErrCodeRateLimited,
			message: "standard API call frequency",
		},
		{
			name:    "premium",
			status:  http.StatusOK,
			body:    `{"Information": "This is a PREMIUM endpoint."}`,
			code:    errors.ErrCodeRequiresUpgrade,
			message: "PREMIUM endpoint",
		},
		{
			name:   "missing series",
			status: http.StatusOK,
			body:   `{"Meta Data": {}}`,
			code:   errors.ErrCodeUnexpectedShape,
		},
		{
			name:   "non-premium information without series",
			status: http.StatusOK,
			body:   `{"Information": "Please consider spreading out your requests."}`,
			code:   errors.ErrCodeUnexpectedShape,
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>maintenance</html>`,
			code:   errors.ErrCodeUnexpectedShape,
		},
		{
			name:   "json array",
			status: http.StatusOK,
			body:   `[1, 2, 3]`,
			code:   errors.ErrCodeUnexpectedShape,
		},
		{
			name:   "series not an object",
			status: http.StatusOK,
			body:   `{"Time Series (Daily)": []}`,
			code:   errors.ErrCodeUnexpectedShape,
		},
		{
			name:    "error message wins over note",
			status:  http.StatusOK,
			body:    `{"Note": "slow down", "Error Message": "bad symbol"}`,
			code:    errors.ErrCodeProviderError,
			message: "bad symbol",
		},
		{
			name:    "note wins over series",
			status:  http.StatusOK,
			body:    `{"Note": "slow down", "Time Series (Daily)": {}}`,
			code:    errors.ErrCodeRateLimited,
			message: "slow down",
		},
		{
			name:   "status wins over body",
			status: http.StatusInternalServerError,
			body:   dailyBody,
			code:   errors.ErrCodeHTTPStatus,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.httpClient.EXPECT().Do(gomock.Any()).Return(response(tc.status, tc.body), nil)

			raw, err := suite.newClient().Fetch(context.Background(), compactRequest("IBM"))
			suite.Require().Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
			suite.True(errors.IsFetchError(err))
			suite.Equal(0, raw.Series.Len())

			if tc.message != "" {
				suite.Contains(err.Error(), tc.message)
			}
		})
	}
}

func (suite *AlphaVantageTestSuite) TestHTTPStatusSnippet() {
	body := strings.Repeat("x", 1000)
	suite.httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusBadGateway, body), nil)

	_, err := suite.newClient().Fetch(context.Background(), compactRequest("IBM"))

	var statusErr *errors.HTTPStatusError
	suite.Require().True(errors.As(err, &statusErr))
	suite.Equal(http.StatusBadGateway, statusErr.StatusCode)
	suite.Len(statusErr.BodySnippet, 200)
}

func (suite *AlphaVantageTestSuite) TestUnexpectedShapeSnippet() {
	body := "<" + strings.Repeat("y", 2000)

	_, err := provider.ParseAlphaVantageResponse(http.StatusOK, []byte(body))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeUnexpectedShape, errors.GetCode(err))
	suite.NotContains(err.Error(), strings.Repeat("y", 500))
	suite.Contains(err.Error(), strings.Repeat("y", 499))
}

func (suite *AlphaVantageTestSuite) TestNonPremiumInformationIsKept() {
	body := `{"Information": "The demo API key is for demo purposes only.", "Time Series (Daily)": {
		"2024-01-02": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`

	raw, err := provider.ParseAlphaVantageResponse(http.StatusOK, []byte(body))
	suite.Require().NoError(err)
	suite.Equal("The demo API key is for demo purposes only.", raw.Metadata.Notice)
	suite.Equal(1, raw.Series.Len())
}

func (suite *AlphaVantageTestSuite) TestEmptySeriesIsNotAnError() {
	raw, err := provider.ParseAlphaVantageResponse(http.StatusOK, []byte(`{"Time Series (Daily)": {}}`))
	suite.NoError(err)
	suite.Equal(0, raw.Series.Len())
}

func (suite *AlphaVantageTestSuite) TestTransportErrors() {
	testCases := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"net timeout", timeoutError{}, errors.ErrCodeTimeout},
		{"deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), errors.ErrCodeTimeout},
		{"connection refused", fmt.Errorf("dial tcp: connection refused"), errors.ErrCodeFetchFailed},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.httpClient.EXPECT().Do(gomock.Any()).Return(nil, tc.err)

			_, err := suite.newClient().Fetch(context.Background(), compactRequest("IBM"))
			suite.Equal(tc.code, errors.GetCode(err))
			suite.True(errors.Is(err, tc.err))
		})
	}
}

func (suite *AlphaVantageTestSuite) TestInvalidRequestSendsNothing() {
	client := suite.newClient()

	_, err := client.Fetch(context.Background(), provider.FetchRequest{Symbol: "", OutputSize: provider.OutputSizeCompact})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = client.Fetch(context.Background(), provider.FetchRequest{Symbol: "IBM", OutputSize: "medium"})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

// AlphaVantageServerTestSuite runs the client against the mock HTTP server.
type AlphaVantageServerTestSuite struct {
	suite.Suite
	server *mockserver.MockAlphaVantageServer
	client *provider.AlphaVantageClient
}

func TestAlphaVantageServerSuite(t *testing.T) {
	suite.Run(t, new(AlphaVantageServerTestSuite))
}

func (suite *AlphaVantageServerTestSuite) SetupTest() {
	suite.server = mockserver.NewMockAlphaVantageServer()
	suite.Require().NoError(suite.server.Start(""))

	client, err := provider.NewAlphaVantageClient("demo", provider.WithBaseURL(suite.server.QueryURL()))
	suite.Require().NoError(err)
	suite.client = client
}

func (suite *AlphaVantageServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *AlphaVantageServerTestSuite) candles(count int) []types.Candle {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, 0, count)

	for i := range count {
		price := 100 + float64(i)
		candles = append(candles, types.NewCandle(start.AddDate(0, 0, i), price, price+1, price-1, price+0.5, int64(1000+i)))
	}

	return candles
}

func (suite *AlphaVantageServerTestSuite) TestFetchCompactAndFull() {
	suite.server.SetSeries("IBM", suite.candles(150))

	compact, err := suite.client.Fetch(context.Background(), compactRequest("IBM"))
	suite.Require().NoError(err)
	suite.Equal(100, compact.Series.Len())
	suite.Equal("IBM", compact.Metadata.Symbol)

	full, err := suite.client.Fetch(context.Background(), provider.FetchRequest{Symbol: "IBM", OutputSize: provider.OutputSizeFull})
	suite.Require().NoError(err)
	suite.Equal(150, full.Series.Len())

	requests := suite.server.Requests()
	suite.Require().Len(requests, 2)
	suite.Equal("compact", requests[0].Get("outputsize"))
	suite.Equal("full", requests[1].Get("outputsize"))
	suite.Equal("demo", requests[1].Get("apikey"))
}

func (suite *AlphaVantageServerTestSuite) TestGeneratedYearRoundTrip() {
	generated := mocks.GenerateYear()
	suite.server.SetSeries("IBM", generated)

	raw, err := suite.client.Fetch(context.Background(), provider.FetchRequest{Symbol: "IBM", OutputSize: provider.OutputSizeFull})
	suite.Require().NoError(err)

	result := marketdata.Normalize(raw, marketdata.NormalizeOptions{})
	suite.Empty(result.Skipped)
	suite.Empty(result.Issues)
	suite.Equal(generated, result.Series.Candles())
}

func (suite *AlphaVantageServerTestSuite) TestFetchScriptedErrors() {
	suite.server.SetResponse("BAD", mockserver.Response{Kind: mockserver.ResponseErrorMessage})
	suite.server.SetResponse("BUSY", mockserver.Response{Kind: mockserver.ResponseRateLimited})
	suite.server.SetResponse("PAID", mockserver.Response{Kind: mockserver.ResponsePremium})
	suite.server.SetResponse("DOWN", mockserver.Response{Kind: mockserver.ResponseRaw, StatusCode: http.StatusBadGateway, Body: "bad gateway"})

	testCases := map[string]errors.ErrorCode{
		"BAD":     errors.ErrCodeProviderError,
		"UNKNOWN": errors.ErrCodeProviderError,
		"BUSY":    errors.ErrCodeRateLimited,
		"PAID":    errors.ErrCodeRequiresUpgrade,
		"DOWN":    errors.ErrCodeHTTPStatus,
	}

	for symbol, code := range testCases {
		_, err := suite.client.Fetch(context.Background(), compactRequest(symbol))
		suite.Equal(code, errors.GetCode(err), symbol)
	}
}

func (suite *AlphaVantageServerTestSuite) TestPremiumOnlyForFull() {
	suite.server.SetResponse("IBM", mockserver.Response{Kind: mockserver.ResponseSeries, Candles: suite.candles(3), PremiumOnlyFull: true})

	_, err := suite.client.Fetch(context.Background(), compactRequest("IBM"))
	suite.NoError(err)

	_, err = suite.client.Fetch(context.Background(), provider.FetchRequest{Symbol: "IBM", OutputSize: provider.OutputSizeFull})
	suite.Equal(errors.ErrCodeRequiresUpgrade, errors.GetCode(err))
}

func (suite *AlphaVantageServerTestSuite) TestTimeout() {
	suite.server.SetSeries("IBM", suite.candles(3))
	suite.server.SetDelay(500 * time.Millisecond)

	_, err := suite.client.Fetch(context.Background(), provider.FetchRequest{
		Symbol:     "IBM",
		OutputSize: provider.OutputSizeCompact,
		Timeout:    50 * time.Millisecond,
	})
	suite.Equal(errors.ErrCodeTimeout, errors.GetCode(err))
}

func (suite *AlphaVantageServerTestSuite) TestCancelledContext() {
	suite.server.SetSeries("IBM", suite.candles(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.client.Fetch(ctx, compactRequest("IBM"))
	suite.Equal(errors.ErrCodeFetchFailed, errors.GetCode(err))
}
