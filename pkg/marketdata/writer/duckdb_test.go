package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupSuite() {
	// Create a temporary directory for test output
	tempDir, err := os.MkdirTemp("", "duckdb-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *DuckDBWriterTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "test.parquet")
	writer := NewDuckDBWriter(outputPath, nil)

	suite.NotNil(writer)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.True(ok)
	suite.Equal(outputPath, duckWriter.GetOutputPath())
	suite.Equal(time.UTC, duckWriter.location)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "test_init.parquet"), nil)

	suite.NoError(writer.Initialize())

	duckWriter := writer.(*DuckDBWriter)
	suite.NotNil(duckWriter.db)
	suite.NotNil(duckWriter.tx)
	suite.NotNil(duckWriter.stmt)

	suite.NoError(writer.Close())
	suite.Nil(duckWriter.db)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "test_no_init.parquet"), nil)

	err := writer.Write(types.Candle{Time: 1})
	suite.Error(err)
	suite.Contains(err.Error(), "writer not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestWriteSeriesRoundTrip() {
	outputPath := filepath.Join(suite.tempDir, "roundtrip.parquet")
	series := sampleSeries()

	path, err := WriteSeries(NewDuckDBWriter(outputPath, nil), series)
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	candles, err := ReadParquet(outputPath)
	suite.Require().NoError(err)
	suite.Equal(series.Candles(), candles)
}

func (suite *DuckDBWriterTestSuite) TestWriteEmptySeries() {
	outputPath := filepath.Join(suite.tempDir, "empty.parquet")

	_, err := WriteSeries(NewDuckDBWriter(outputPath, nil), types.NewCandleSeries(nil))
	suite.Require().NoError(err)

	candles, err := ReadParquet(outputPath)
	suite.Require().NoError(err)
	suite.Empty(candles)
}

func (suite *DuckDBWriterTestSuite) TestOverwrite() {
	outputPath := filepath.Join(suite.tempDir, "overwrite.parquet")

	_, err := WriteSeries(NewDuckDBWriter(outputPath, nil), sampleSeries())
	suite.Require().NoError(err)

	single := types.NewCandleSeries([]types.Candle{{Time: 1704153600000, Open: 1, High: 2, Low: 1, Close: 2, Volume: 3}})
	_, err = WriteSeries(NewDuckDBWriter(outputPath, nil), single)
	suite.Require().NoError(err)

	candles, err := ReadParquet(outputPath)
	suite.Require().NoError(err)
	suite.Equal(single.Candles(), candles)
}

func (suite *DuckDBWriterTestSuite) TestCloseWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "close.parquet"), nil)
	suite.NoError(writer.Close())
}
