// Package mockserver provides a mock Alpha Vantage server for testing.
// It serves the TIME_SERIES_DAILY query endpoint and can be scripted to return
// provider errors, rate-limit notes, premium notices, raw bodies and slow responses.
package mockserver

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-quotes/internal/types"
)

const (
	// ErrorMessage is returned for unknown symbols.
	ErrorMessage = "Invalid API call. Please retry or visit the documentation (https://www.alphavantage.co/documentation/) for TIME_SERIES_DAILY."
	// RateLimitNote mirrors the free-tier frequency notice.
	RateLimitNote = "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute and 500 calls per day."
	// PremiumInformation mirrors the notice sent for paid-only parameters.
	PremiumInformation = "Thank you for using Alpha Vantage! The outputsize=full parameter value is a premium feature for the TIME_SERIES_DAILY endpoint."
	// MissingKeyMessage is returned when the apikey parameter is empty.
	MissingKeyMessage = "the parameter apikey is invalid or missing."
)

// ResponseKind selects how the server answers a symbol.
type ResponseKind int

const (
	ResponseSeries ResponseKind = iota
	ResponseErrorMessage
	ResponseRateLimited
	ResponsePremium
	ResponseRaw
)

// Response scripts the answer for one symbol.
type Response struct {
	Kind ResponseKind
	// StatusCode defaults to 200.
	StatusCode int
	// Candles are rendered newest first, like the real service.
	Candles []types.Candle
	// Body is sent verbatim for ResponseRaw.
	Body string
	// PremiumOnlyFull makes outputsize=full return the premium notice.
	PremiumOnlyFull bool
}

// MockAlphaVantageServer provides a mock Alpha Vantage server for testing.
type MockAlphaVantageServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	responses map[string]Response
	requests  []url.Values
	delay     time.Duration
}

// NewMockAlphaVantageServer creates a new mock server. Unknown symbols get an "Error Message" body.
func NewMockAlphaVantageServer() *MockAlphaVantageServer {
	return &MockAlphaVantageServer{
		mu:         sync.RWMutex{},
		httpServer: nil,
		listener:   nil,
		responses:  make(map[string]Response),
		requests:   make([]url.Values, 0),
		delay:      0,
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockAlphaVantageServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/query", s.handleQuery).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockAlphaVantageServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *MockAlphaVantageServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// QueryURL returns the query endpoint, suitable for provider.WithBaseURL.
func (s *MockAlphaVantageServer) QueryURL() string {
	return "http://" + s.Address() + "/query"
}

// SetResponse scripts the response for symbol.
func (s *MockAlphaVantageServer) SetResponse(symbol string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responses[symbol] = response
}

// SetSeries scripts a successful daily series for symbol.
func (s *MockAlphaVantageServer) SetSeries(symbol string, candles []types.Candle) {
	s.SetResponse(symbol, Response{Kind: ResponseSeries, Candles: candles})
}

// SetDelay delays every response, for timeout tests.
func (s *MockAlphaVantageServer) SetDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delay = delay
}

// Requests returns the query parameters of every request received.
func (s *MockAlphaVantageServer) Requests() []url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.requests)
}

func (s *MockAlphaVantageServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	s.mu.Lock()
	s.requests = append(s.requests, query)
	delay := s.delay
	response, found := s.responses[query.Get("symbol")]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if query.Get("function") != "TIME_SERIES_DAILY" {
		s.writeJSON(w, http.StatusOK, map[string]any{"Error Message": ErrorMessage})

		return
	}

	if query.Get("apikey") == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"Error Message": MissingKeyMessage})

		return
	}

	if !found {
		s.writeJSON(w, http.StatusOK, map[string]any{"Error Message": ErrorMessage})

		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	switch response.Kind {
	case ResponseErrorMessage:
		s.writeJSON(w, status, map[string]any{"Error Message": ErrorMessage})
	case ResponseRateLimited:
		s.writeJSON(w, status, map[string]any{"Note": RateLimitNote})
	case ResponsePremium:
		s.writeJSON(w, status, map[string]any{"Information": PremiumInformation})
	case ResponseRaw:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response.Body))
	default:
		if response.PremiumOnlyFull && query.Get("outputsize") == "full" {
			s.writeJSON(w, status, map[string]any{"Information": PremiumInformation})

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(DailySeriesBody(query.Get("symbol"), query.Get("outputsize"), response.Candles))
	}
}

func (s *MockAlphaVantageServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// DailySeriesBody renders candles as a TIME_SERIES_DAILY document, newest first.
// Compact output keeps only the latest 100 candles.
func DailySeriesBody(symbol string, outputSize string, candles []types.Candle) []byte {
	ordered := slices.Clone(candles)
	slices.SortFunc(ordered, func(a, b types.Candle) int {
		return cmp.Compare(b.Time, a.Time)
	})

	if outputSize != "full" && len(ordered) > 100 {
		ordered = ordered[:100]
	}

	lastRefreshed := ""
	if len(ordered) > 0 {
		lastRefreshed = ordered[0].Date(time.UTC)
	}

	var body strings.Builder

	// Built by hand so the series keeps its newest-first key order.
	fmt.Fprintf(&body, `{"Meta Data":{"1. Information":"Daily Prices (open, high, low, close) and Volumes",`+
		`"2. Symbol":%q,"3. Last Refreshed":%q,"4. Output Size":%q,"5. Time Zone":"US/Eastern"},`+
		`"Time Series (Daily)":{`, symbol, lastRefreshed, outputSizeLabel(outputSize))

	for i, candle := range ordered {
		if i > 0 {
			body.WriteString(",")
		}

		fmt.Fprintf(&body, `%q:{"1. open":%q,"2. high":%q,"3. low":%q,"4. close":%q,"5. volume":%q}`,
			candle.Date(time.UTC),
			formatPrice(candle.Open),
			formatPrice(candle.High),
			formatPrice(candle.Low),
			formatPrice(candle.Close),
			strconv.FormatInt(candle.Volume, 10),
		)
	}

	body.WriteString("}}")

	return []byte(body.String())
}

func outputSizeLabel(outputSize string) string {
	if outputSize == "full" {
		return "Full size"
	}

	return "Compact"
}

func formatPrice(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
