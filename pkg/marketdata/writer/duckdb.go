package writer

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-quotes/internal/types"
)

const candleTable = "candles"

// DuckDBWriter stages candles in an in-memory DuckDB table and exports them to Parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	sq         squirrel.StatementBuilderType
	location   *time.Location
	outputPath string // Path of the output Parquet file
}

// NewDuckDBWriter creates a new DuckDBWriter. The date column is rendered in loc, UTC when nil.
func NewDuckDBWriter(outputPath string, loc *time.Location) MarketDataWriter {
	if loc == nil {
		loc = time.UTC
	}

	return &DuckDBWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		location:   loc,
		outputPath: outputPath,
	}
}

// Initialize opens an in-memory database, creates the candle table,
// begins a transaction and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			time BIGINT,
			date VARCHAR,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume BIGINT
		)
	`)
	if err != nil {
		w.db.Close() // Ensure DB is closed on error during init

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query, _, err := w.sq.Insert(candleTable).
		Columns("time", "date", "open", "high", "low", "close", "volume").
		Values(0, "", 0.0, 0.0, 0.0, 0.0, 0).
		ToSql()
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to build insert statement: %w", err)
	}

	w.stmt, err = w.tx.Prepare(query)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	return nil
}

// Write inserts a single candle within the transaction.
func (w *DuckDBWriter) Write(candle types.Candle) error {
	if w.stmt == nil {
		return fmt.Errorf("writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(
		candle.Time,
		candle.Date(w.location),
		candle.Open,
		candle.High,
		candle.Low,
		candle.Close,
		candle.Volume,
	)
	if err != nil {
		// Don't rollback here, let Finalize handle it or allow further writes
		return fmt.Errorf("failed to insert candle: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table, ordered by time, to Parquet.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		// Attempt rollback on commit failure, though it might also fail
		w.tx.Rollback()

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil // Transaction is finished

	selectQuery, _, err := w.sq.Select("time", "date", "open", "high", "low", "close", "volume").
		From(candleTable).
		OrderBy("time").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build export query: %w", err)
	}

	_, err = w.db.Exec(fmt.Sprintf(`COPY (%s) TO '%s' (FORMAT PARQUET)`, selectQuery, quoteLiteral(w.outputPath)))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	return w.outputPath, nil
}

// Close cleans up resources used by the writer, including closing the statement
// and the database connection.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	// If transaction is still active (e.g., Finalize wasn't called or failed), rollback
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			log.Printf("Warning: failed to rollback transaction during close: %v", err)
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// ReadParquet loads candles from a Parquet file written by DuckDBWriter.
func ReadParquet(path string) ([]types.Candle, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	query, _, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).
		Select("time", "open", "high", "low", "close", "volume").
		From(fmt.Sprintf("read_parquet('%s')", quoteLiteral(path))).
		OrderBy("time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build read query: %w", err)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	defer rows.Close()

	candles := make([]types.Candle, 0)

	for rows.Next() {
		var candle types.Candle
		if err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}

		candles = append(candles, candle)
	}

	return candles, rows.Err()
}

// quoteLiteral escapes single quotes for use inside a SQL string literal.
func quoteLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
