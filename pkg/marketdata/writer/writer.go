// Package writer persists candle series. Every writer replaces its output file
// on Finalize, so writing the same series twice yields byte-identical files.
package writer

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// MarketDataWriter defines the interface for writing candles to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or buffers.
	Initialize() error
	// Write persists a single candle.
	Write(candle types.Candle) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// WriteSeries drives a writer through its lifecycle for the whole series.
// Failures are reported with ErrCodeWriteFailed.
func WriteSeries(w MarketDataWriter, series types.CandleSeries) (outputPath string, err error) {
	if err := w.Initialize(); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to initialize writer for %s", w.GetOutputPath())
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(errors.ErrCodeWriteFailed, cerr, "error closing writer for %s", w.GetOutputPath())
		}
	}()

	for _, candle := range series.All() {
		if err := w.Write(candle); err != nil {
			return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write candle %d", candle.Time)
		}
	}

	outputPath, err = w.Finalize()
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to finalize %s", w.GetOutputPath())
	}

	return outputPath, nil
}

// WriteJSON writes the series to path as an indented JSON array.
func WriteJSON(series types.CandleSeries, path string) error {
	_, err := WriteSeries(NewJSONWriter(path), series)

	return err
}

// WriteCSV writes the series to path as a CSV table with dates rendered in loc.
func WriteCSV(series types.CandleSeries, path string, loc *time.Location) error {
	_, err := WriteSeries(NewCSVWriter(path, loc), series)

	return err
}

func requireInitialized(initialized bool, path string) error {
	if !initialized {
		return fmt.Errorf("writer for %s not initialized", path)
	}

	return nil
}
