package marketdata

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
)

// Canonical field names of a daily record.
const (
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// NormalizeOptions controls how raw records become candles.
type NormalizeOptions struct {
	// Location anchors each date at midnight. Nil means UTC.
	Location *time.Location
}

func (o NormalizeOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}

	return o.Location
}

// NormalizeResult is the outcome of a normalization pass.
type NormalizeResult struct {
	Series types.CandleSeries
	// Skipped lists the records that were dropped, in document order.
	Skipped []*errors.RecordError
	// Issues lists soft data-quality flags raised on kept candles.
	Issues []types.QualityIssue
}

// Normalize converts a raw provider response into a candle series.
//
// Records with a malformed date or an unparsable field are dropped and reported in Skipped;
// they never abort the pass. The series is sorted ascending and duplicate dates keep the
// record seen last in the document.
func Normalize(raw provider.RawQuoteResponse, opts NormalizeOptions) NormalizeResult {
	loc := opts.location()

	candles := make([]types.Candle, 0, raw.Series.Len())
	skipped := make([]*errors.RecordError, 0)

	for _, record := range raw.Series {
		candle, recordErr := NormalizeRecord(record, loc)
		if recordErr != nil {
			skipped = append(skipped, recordErr)

			continue
		}

		candles = append(candles, candle)
	}

	series := types.NewCandleSeries(candles)

	return NormalizeResult{
		Series:  series,
		Skipped: skipped,
		Issues:  series.QualityIssues(),
	}
}

// NormalizeRecord converts one raw record. The date must be exactly YYYY-MM-DD.
func NormalizeRecord(record provider.RawRecord, loc *time.Location) (types.Candle, *errors.RecordError) {
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation(types.DateLayout, record.Date, loc)
	if err != nil {
		return types.Candle{}, errors.NewBadTimestampError(record.Date)
	}

	prices := make(map[string]float64, 4)

	for _, field := range []string{FieldOpen, FieldHigh, FieldLow, FieldClose} {
		text, ok := record.Lookup(field)
		if !ok {
			return types.Candle{}, errors.NewBadFieldError(record.Date, field, "")
		}

		value, err := parsePrice(text)
		if err != nil {
			return types.Candle{}, errors.NewBadFieldError(record.Date, field, text)
		}

		prices[field] = value
	}

	volumeText, ok := record.Lookup(FieldVolume)
	if !ok {
		return types.Candle{}, errors.NewBadFieldError(record.Date, FieldVolume, "")
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(volumeText), 10, 64)
	if err != nil {
		return types.Candle{}, errors.NewBadFieldError(record.Date, FieldVolume, volumeText)
	}

	return types.NewCandle(day, prices[FieldOpen], prices[FieldHigh], prices[FieldLow], prices[FieldClose], volume), nil
}

// parsePrice parses a decimal price. Hex floats and non-finite values are rejected.
func parsePrice(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if unsigned := strings.TrimLeft(text, "+-"); len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, strconv.ErrSyntax
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, strconv.ErrSyntax
	}

	return value, nil
}
