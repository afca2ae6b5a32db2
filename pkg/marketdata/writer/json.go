package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-quotes/internal/types"
)

// JSONWriter writes candles as a pretty-printed JSON array.
// Non-ASCII text and HTML characters are written unescaped.
type JSONWriter struct {
	outputPath string
	candles    []types.Candle
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(outputPath string) MarketDataWriter {
	return &JSONWriter{
		outputPath: outputPath,
		candles:    nil,
	}
}

// Initialize resets the buffered candles.
func (w *JSONWriter) Initialize() error {
	w.candles = make([]types.Candle, 0)

	return nil
}

// Write buffers a single candle.
func (w *JSONWriter) Write(candle types.Candle) error {
	if err := requireInitialized(w.candles != nil, w.outputPath); err != nil {
		return err
	}

	w.candles = append(w.candles, candle)

	return nil
}

// Finalize encodes the buffered candles and replaces the output file.
func (w *JSONWriter) Finalize() (string, error) {
	if err := requireInitialized(w.candles != nil, w.outputPath); err != nil {
		return "", err
	}

	data, err := EncodeJSON(w.candles)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(w.outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write json file: %w", err)
	}

	return w.outputPath, nil
}

// Close releases the buffered candles.
func (w *JSONWriter) Close() error {
	w.candles = nil

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *JSONWriter) GetOutputPath() string {
	return w.outputPath
}

// EncodeJSON renders candles as a 2-space indented JSON array with a trailing newline.
// A nil or empty slice renders as [].
func EncodeJSON(candles []types.Candle) ([]byte, error) {
	if candles == nil {
		candles = []types.Candle{}
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(candles); err != nil {
		return nil, fmt.Errorf("failed to encode candles: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadJSON loads candles written by JSONWriter.
func ReadJSON(path string) ([]types.Candle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file: %w", err)
	}

	var candles []types.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("failed to decode json file: %w", err)
	}

	return candles, nil
}
