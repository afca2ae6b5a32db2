package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type IngestSummaryTestSuite struct {
	suite.Suite
	tempDir string
}

func TestIngestSummarySuite(t *testing.T) {
	suite.Run(t, new(IngestSummaryTestSuite))
}

func (suite *IngestSummaryTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "ingest_summary_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *IngestSummaryTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *IngestSummaryTestSuite) TestApplySeriesSummary() {
	var summary IngestSummary
	summary.ApplySeriesSummary(SeriesSummary{Count: 2, First: 1704153600000, Last: 1704240000000}, time.UTC)

	suite.Equal(2, summary.Count)
	suite.Equal(int64(1704153600000), summary.FirstTime)
	suite.Equal("2024-01-02", summary.FirstDate)
	suite.Equal("2024-01-03", summary.LastDate)
}

func (suite *IngestSummaryTestSuite) TestApplyEmptySeriesSummary() {
	summary := IngestSummary{FirstDate: "stale", LastDate: "stale"}
	summary.ApplySeriesSummary(SeriesSummary{}, time.UTC)

	suite.Equal(0, summary.Count)
	suite.Empty(summary.FirstDate)
	suite.Empty(summary.LastDate)
}

func (suite *IngestSummaryTestSuite) TestWriteAndReadIngestSummary() {
	path := filepath.Join(suite.tempDir, "summary.yaml")
	summary := IngestSummary{
		ID:             "run-1",
		FetchedAt:      time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
		Provider:       "alphavantage",
		Symbol:         "IBM",
		OutputSize:     "compact",
		Count:          1,
		FirstTime:      1704153600000,
		FirstDate:      "2024-01-02",
		LastTime:       1704153600000,
		LastDate:       "2024-01-02",
		SkippedRecords: 2,
		QualityIssues:  1,
		Outputs:        []string{"out.json", "out.csv"},
	}

	suite.Require().NoError(WriteIngestSummary(path, summary))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var raw map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &raw))
	suite.Equal("IBM", raw["symbol"])
	suite.Equal(2, raw["skipped_records"])

	loaded, err := ReadIngestSummary(path)
	suite.Require().NoError(err)
	suite.Equal(summary, loaded)
}

func (suite *IngestSummaryTestSuite) TestWriteIngestSummaryOverwrites() {
	path := filepath.Join(suite.tempDir, "summary.yaml")
	suite.Require().NoError(WriteIngestSummary(path, IngestSummary{Symbol: "AAA", Outputs: []string{}}))
	suite.Require().NoError(WriteIngestSummary(path, IngestSummary{Symbol: "BBB", Outputs: []string{}}))

	loaded, err := ReadIngestSummary(path)
	suite.Require().NoError(err)
	suite.Equal("BBB", loaded.Symbol)
}

func (suite *IngestSummaryTestSuite) TestWriteIngestSummaryBadPath() {
	err := WriteIngestSummary(filepath.Join(suite.tempDir, "missing", "summary.yaml"), IngestSummary{})
	suite.Error(err)
}

func (suite *IngestSummaryTestSuite) TestReadIngestSummaryMissingFile() {
	_, err := ReadIngestSummary(filepath.Join(suite.tempDir, "nope.yaml"))
	suite.Error(err)
}
