package types

import (
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Window returns the candles in [start, start+n), clamped to the series bounds.
// An out-of-range start or a non-positive n yields an empty series.
func (s CandleSeries) Window(start, n int) CandleSeries {
	if start < 0 || n <= 0 || start >= len(s.candles) {
		return CandleSeries{}
	}

	end := min(start+n, len(s.candles))

	return CandleSeries{candles: s.Candles()[start:end]}
}

// StartPicker returns an index in [0, n). n is always positive.
type StartPicker func(n int) int

// SampleWindow picks a window of length+hidden consecutive candles.
// The start is drawn from [0, Len()-length-hidden) with pick; when the series fits
// exactly the start is 0.
func (s CandleSeries) SampleWindow(length, hidden int, pick StartPicker) (CandleSeries, error) {
	if length <= 0 || hidden <= 0 {
		return CandleSeries{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"window length and hidden count must be positive, got %d and %d", length, hidden)
	}

	size := length + hidden
	if s.Len() < size {
		return CandleSeries{}, errors.Newf(errors.ErrCodeInsufficientData,
			"series has %d candles, need at least %d", s.Len(), size)
	}

	start := 0
	if maxStart := s.Len() - size; maxStart > 0 {
		start = pick(maxStart)
		if start < 0 || start >= maxStart {
			return CandleSeries{}, errors.Newf(errors.ErrCodeInvalidParameter,
				"picked start %d is outside [0, %d)", start, maxStart)
		}
	}

	return s.Window(start, size), nil
}

// Forecast is a series split into a visible history and a hidden future.
type Forecast struct {
	Visible CandleSeries
	Future  CandleSeries
	// LastKnownPrice is the close of the last visible candle.
	LastKnownPrice float64
	// FinalPrice is the close of the last future candle.
	FinalPrice float64
	// PercentChange is (FinalPrice - LastKnownPrice) / LastKnownPrice * 100.
	PercentChange float64
	IsRise        bool
}

// SplitForecast hides the last hidden candles as the future part.
// Both parts must be non-empty and the last visible close must be non-zero.
func (s CandleSeries) SplitForecast(hidden int) (Forecast, error) {
	if hidden <= 0 {
		return Forecast{}, errors.Newf(errors.ErrCodeInvalidParameter, "hidden count must be positive, got %d", hidden)
	}

	cutoff := s.Len() - hidden
	if cutoff <= 0 {
		return Forecast{}, errors.Newf(errors.ErrCodeInsufficientData,
			"series has %d candles, need more than %d to leave a visible part", s.Len(), hidden)
	}

	visible := s.Window(0, cutoff)
	future := s.Window(cutoff, hidden)

	lastKnown := visible.Last().Unwrap().Close
	final := future.Last().Unwrap().Close

	if lastKnown == 0 {
		return Forecast{}, errors.New(errors.ErrCodeInsufficientData, "last visible close is zero")
	}

	return Forecast{
		Visible:        visible,
		Future:         future,
		LastKnownPrice: lastKnown,
		FinalPrice:     final,
		PercentChange:  (final - lastKnown) / lastKnown * 100,
		IsRise:         final > lastKnown,
	}, nil
}
