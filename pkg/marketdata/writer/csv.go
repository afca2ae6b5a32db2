package writer

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-quotes/internal/types"
)

// CSVHeader is the header row written by CSVWriter.
var CSVHeader = []string{"时间", "开盘", "最高", "最低", "收盘", "成交量"}

// csvRow is one rendered candle. Values are preformatted so floats use the
// shortest plain decimal form and the date follows the writer's location.
type csvRow struct {
	Date   string `csv:"时间"`
	Open   string `csv:"开盘"`
	High   string `csv:"最高"`
	Low    string `csv:"最低"`
	Close  string `csv:"收盘"`
	Volume string `csv:"成交量"`
}

// CSVWriter writes candles as a CSV table with a Chinese header row.
type CSVWriter struct {
	outputPath string
	location   *time.Location
	rows       []*csvRow
}

// NewCSVWriter creates a new CSVWriter. Dates are rendered in loc, UTC when nil.
func NewCSVWriter(outputPath string, loc *time.Location) MarketDataWriter {
	if loc == nil {
		loc = time.UTC
	}

	return &CSVWriter{
		outputPath: outputPath,
		location:   loc,
		rows:       nil,
	}
}

// Initialize resets the buffered rows.
func (w *CSVWriter) Initialize() error {
	w.rows = make([]*csvRow, 0)

	return nil
}

// Write renders and buffers a single candle.
func (w *CSVWriter) Write(candle types.Candle) error {
	if err := requireInitialized(w.rows != nil, w.outputPath); err != nil {
		return err
	}

	w.rows = append(w.rows, &csvRow{
		Date:   candle.Date(w.location),
		Open:   FormatFloat(candle.Open),
		High:   FormatFloat(candle.High),
		Low:    FormatFloat(candle.Low),
		Close:  FormatFloat(candle.Close),
		Volume: strconv.FormatInt(candle.Volume, 10),
	})

	return nil
}

// Finalize replaces the output file with the header and the buffered rows.
func (w *CSVWriter) Finalize() (string, error) {
	if err := requireInitialized(w.rows != nil, w.outputPath); err != nil {
		return "", err
	}

	data, err := gocsv.MarshalBytes(&w.rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode csv rows: %w", err)
	}

	if err := os.WriteFile(w.outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write csv file: %w", err)
	}

	return w.outputPath, nil
}

// Close releases the buffered rows.
func (w *CSVWriter) Close() error {
	w.rows = nil

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}

// FormatFloat renders a price as the shortest plain decimal, e.g. 185 or 184.5.
func FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// ReadCSV loads the rows written by CSVWriter as string records, header excluded.
func ReadCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode csv file: %w", err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.Date, row.Open, row.High, row.Low, row.Close, row.Volume})
	}

	return records, nil
}
