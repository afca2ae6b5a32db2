package types

import (
	"iter"
	"slices"

	"github.com/moznion/go-optional"
)

// CandleSeries is an immutable, strictly ascending sequence of candles with unique timestamps.
// The zero value is an empty series.
type CandleSeries struct {
	candles []Candle
}

// NewCandleSeries sorts candles by timestamp and collapses duplicate timestamps.
// When two candles share a timestamp, the one appearing later in the input wins.
func NewCandleSeries(candles []Candle) CandleSeries {
	sorted := slices.Clone(candles)
	slices.SortStableFunc(sorted, func(a, b Candle) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})

	deduped := make([]Candle, 0, len(sorted))
	for _, candle := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Time == candle.Time {
			deduped[n-1] = candle

			continue
		}

		deduped = append(deduped, candle)
	}

	return CandleSeries{candles: deduped}
}

// Len returns the number of candles.
func (s CandleSeries) Len() int {
	return len(s.candles)
}

// IsEmpty reports whether the series has no candles.
func (s CandleSeries) IsEmpty() bool {
	return len(s.candles) == 0
}

// Candles returns a copy of the candles. It is never nil.
func (s CandleSeries) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)

	return out
}

// All iterates the candles in order.
func (s CandleSeries) All() iter.Seq2[int, Candle] {
	return slices.All(s.candles)
}

// First returns the earliest candle.
func (s CandleSeries) First() optional.Option[Candle] {
	if s.IsEmpty() {
		return optional.None[Candle]()
	}

	return optional.Some(s.candles[0])
}

// Last returns the latest candle.
func (s CandleSeries) Last() optional.Option[Candle] {
	if s.IsEmpty() {
		return optional.None[Candle]()
	}

	return optional.Some(s.candles[len(s.candles)-1])
}

// SeriesSummary holds the values callers use to sanity-check a series.
type SeriesSummary struct {
	Count int `yaml:"count" json:"count"`
	// First and Last are millisecond timestamps. Both are zero for an empty series.
	First int64 `yaml:"first" json:"first"`
	Last  int64 `yaml:"last" json:"last"`
}

// Summary returns the count and the [first, last] timestamps.
func (s CandleSeries) Summary() SeriesSummary {
	var summary SeriesSummary

	summary.Count = s.Len()

	if first := s.First(); first.IsSome() {
		summary.First = first.Unwrap().Time
	}

	if last := s.Last(); last.IsSome() {
		summary.Last = last.Unwrap().Time
	}

	return summary
}

// QualityIssues validates every candle in the series.
func (s CandleSeries) QualityIssues() []QualityIssue {
	var issues []QualityIssue
	for _, candle := range s.candles {
		issues = append(issues, candle.Validate()...)
	}

	return issues
}
