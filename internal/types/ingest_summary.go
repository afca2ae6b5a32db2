package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// IngestSummary describes one fetch, normalize and persist run.
type IngestSummary struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// FetchedAt is when the provider response was received.
	FetchedAt  time.Time `yaml:"fetched_at" json:"fetchedAt"`
	Provider   string    `yaml:"provider" json:"provider"`
	Symbol     string    `yaml:"symbol" json:"symbol"`
	OutputSize string    `yaml:"output_size" json:"outputSize"`
	// Count is the number of candles persisted.
	Count     int    `yaml:"count" json:"count"`
	FirstTime int64  `yaml:"first_time" json:"firstTime"`
	FirstDate string `yaml:"first_date,omitempty" json:"firstDate,omitempty"`
	LastTime  int64  `yaml:"last_time" json:"lastTime"`
	LastDate  string `yaml:"last_date,omitempty" json:"lastDate,omitempty"`
	// SkippedRecords counts raw records dropped during normalization.
	SkippedRecords int `yaml:"skipped_records" json:"skippedRecords"`
	// QualityIssues counts soft data-quality flags on kept candles.
	QualityIssues int `yaml:"quality_issues" json:"qualityIssues"`
	// Outputs lists the files written, in write order.
	Outputs []string `yaml:"outputs" json:"outputs"`
}

// ApplySeriesSummary copies count and range from a series summary, rendering dates in loc.
func (s *IngestSummary) ApplySeriesSummary(summary SeriesSummary, loc *time.Location) {
	s.Count = summary.Count
	s.FirstTime = summary.First
	s.LastTime = summary.Last

	if summary.Count == 0 {
		s.FirstDate = ""
		s.LastDate = ""

		return
	}

	s.FirstDate = FormatDate(summary.First, loc)
	s.LastDate = FormatDate(summary.Last, loc)
}

// WriteIngestSummary writes the summary to path as YAML, replacing any existing file.
func WriteIngestSummary(path string, summary IngestSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ingest summary to file: %w", err)
	}

	return nil
}

// ReadIngestSummary loads a summary previously written by WriteIngestSummary.
func ReadIngestSummary(path string) (IngestSummary, error) {
	var summary IngestSummary

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read ingest summary: %w", err)
	}

	if err := yaml.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("failed to unmarshal ingest summary: %w", err)
	}

	return summary, nil
}
