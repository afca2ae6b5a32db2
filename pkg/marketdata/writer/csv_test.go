package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/stretchr/testify/suite"
)

type CSVWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (suite *CSVWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *CSVWriterTestSuite) TestWriteCSVFormat() {
	path := filepath.Join(suite.tempDir, "out.csv")

	suite.Require().NoError(WriteCSV(sampleSeries(), path, time.UTC))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	expected := "时间,开盘,最高,最低,收盘,成交量\n" +
		"2024-01-02,185,186,184.5,185.5,1000000\n" +
		"2024-01-03,185.5,187.25,185,186.75,2000000\n"
	suite.Equal(expected, string(data))
}

func (suite *CSVWriterTestSuite) TestEmptySeriesWritesHeaderOnly() {
	path := filepath.Join(suite.tempDir, "empty.csv")

	suite.Require().NoError(WriteCSV(types.NewCandleSeries(nil), path, nil))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("时间,开盘,最高,最低,收盘,成交量\n", string(data))
}

func (suite *CSVWriterTestSuite) TestDatesFollowLocation() {
	loc := time.FixedZone("UTC+8", 8*60*60)
	path := filepath.Join(suite.tempDir, "local.csv")

	// Midnight in UTC+8 is 16:00 of the previous day in UTC
	candle := types.NewCandle(time.Date(2024, 1, 2, 0, 0, 0, 0, loc), 1, 1, 1, 1, 1)
	series := types.NewCandleSeries([]types.Candle{candle})

	suite.Require().NoError(WriteCSV(series, path, loc))

	records, err := ReadCSV(path)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Equal("2024-01-02", records[0][0])
}

func (suite *CSVWriterTestSuite) TestIdempotent() {
	path := filepath.Join(suite.tempDir, "idempotent.csv")

	suite.Require().NoError(WriteCSV(sampleSeries(), path, time.UTC))
	first, err := os.ReadFile(path)
	suite.Require().NoError(err)

	suite.Require().NoError(WriteCSV(sampleSeries(), path, time.UTC))
	second, err := os.ReadFile(path)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *CSVWriterTestSuite) TestReadCSV() {
	path := filepath.Join(suite.tempDir, "read.csv")
	suite.Require().NoError(WriteCSV(sampleSeries(), path, time.UTC))

	records, err := ReadCSV(path)
	suite.Require().NoError(err)
	suite.Equal([][]string{
		{"2024-01-02", "185", "186", "184.5", "185.5", "1000000"},
		{"2024-01-03", "185.5", "187.25", "185", "186.75", "2000000"},
	}, records)
}

func (suite *CSVWriterTestSuite) TestWriteWithoutInitialize() {
	w := NewCSVWriter(filepath.Join(suite.tempDir, "x.csv"), nil)

	suite.Error(w.Write(types.Candle{}))

	_, err := w.Finalize()
	suite.Error(err)
}

func (suite *CSVWriterTestSuite) TestFormatFloat() {
	suite.Equal("185", FormatFloat(185.0))
	suite.Equal("184.5", FormatFloat(184.5))
	suite.Equal("0.0001", FormatFloat(0.0001))
	suite.Equal("123456789.125", FormatFloat(123456789.125))
}
