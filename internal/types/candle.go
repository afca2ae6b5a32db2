package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by daily providers and the CSV output.
const DateLayout = "2006-01-02"

// Candle is one trading day's OHLCV summary.
type Candle struct {
	// Time is milliseconds since epoch at midnight of the trading day.
	Time   int64   `json:"time" yaml:"time"`
	Open   float64 `json:"open" yaml:"open"`
	High   float64 `json:"high" yaml:"high"`
	Low    float64 `json:"low" yaml:"low"`
	Close  float64 `json:"close" yaml:"close"`
	Volume int64   `json:"volume" yaml:"volume"`
}

// NewCandle creates a Candle stamped at t.
func NewCandle(t time.Time, open, high, low, close float64, volume int64) Candle {
	return Candle{
		Time:   t.UnixMilli(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// At returns the candle timestamp in loc. A nil loc means UTC.
func (c Candle) At(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	return time.UnixMilli(c.Time).In(loc)
}

// Date renders the candle timestamp as YYYY-MM-DD in loc.
func (c Candle) Date(loc *time.Location) string {
	return c.At(loc).Format(DateLayout)
}

// FormatDate renders a millisecond timestamp as YYYY-MM-DD in loc.
func FormatDate(ms int64, loc *time.Location) string {
	return Candle{Time: ms}.Date(loc)
}

// QualityIssueKind identifies a failed data-quality check.
type QualityIssueKind string

const (
	QualityLowAboveHigh     QualityIssueKind = "low_above_high"
	QualityOpenOutOfRange   QualityIssueKind = "open_out_of_range"
	QualityCloseOutOfRange  QualityIssueKind = "close_out_of_range"
	QualityNegativeVolume   QualityIssueKind = "negative_volume"
	QualityNonPositivePrice QualityIssueKind = "non_positive_price"
)

// QualityIssue flags a candle whose values are inconsistent.
// Flagged candles are kept in the series.
type QualityIssue struct {
	Time    int64            `json:"time" yaml:"time"`
	Kind    QualityIssueKind `json:"kind" yaml:"kind"`
	Message string           `json:"message" yaml:"message"`
}

func (q QualityIssue) String() string {
	return fmt.Sprintf("%s at %s: %s", q.Kind, FormatDate(q.Time, time.UTC), q.Message)
}

// Validate runs the OHLCV consistency checks and returns every issue found.
// When low is above high the range checks are skipped, since no value can lie in an empty range.
func (c Candle) Validate() []QualityIssue {
	var issues []QualityIssue

	issue := func(kind QualityIssueKind, format string, args ...any) {
		issues = append(issues, QualityIssue{
			Time:    c.Time,
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		issue(QualityNonPositivePrice, "open=%v high=%v low=%v close=%v", c.Open, c.High, c.Low, c.Close)
	}

	if c.Low > c.High {
		issue(QualityLowAboveHigh, "low %v > high %v", c.Low, c.High)
	} else {
		if c.Open < c.Low || c.Open > c.High {
			issue(QualityOpenOutOfRange, "open %v outside [%v, %v]", c.Open, c.Low, c.High)
		}

		if c.Close < c.Low || c.Close > c.High {
			issue(QualityCloseOutOfRange, "close %v outside [%v, %v]", c.Close, c.Low, c.High)
		}
	}

	if c.Volume < 0 {
		issue(QualityNegativeVolume, "volume %d", c.Volume)
	}

	return issues
}
