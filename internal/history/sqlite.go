package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vk/calcgrid/internal/timeseries"
	_ "modernc.org/sqlite"
)

// SQLiteSource stores historical points in a SQLite database.
type SQLiteSource struct {
	conn *sql.DB
	Path string
}

// OpenSQLite opens (and migrates) a SQLite points store with WAL mode
// enabled for concurrent reads.
func OpenSQLite(path string) (*SQLiteSource, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS series_points (
			series TEXT NOT NULL,
			period TEXT NOT NULL,
			value  REAL NOT NULL,
			PRIMARY KEY (series, period)
		)
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteSource{conn: conn, Path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.conn.Close()
}

// Put upserts one observation.
func (s *SQLiteSource) Put(ctx context.Context, ref string, period timeseries.Period, value float64) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO series_points (series, period, value) VALUES (?, ?, ?)
		ON CONFLICT (series, period) DO UPDATE SET value = excluded.value
	`, ref, period.String(), value)
	if err != nil {
		return fmt.Errorf("storing point %s/%s: %w", ref, period, err)
	}
	return nil
}

// PutSeries upserts every present point of a series in one transaction.
func (s *SQLiteSource) PutSeries(ctx context.Context, ref string, series timeseries.Series) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, pt := range series.Points {
		if pt.Missing {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO series_points (series, period, value) VALUES (?, ?, ?)
			ON CONFLICT (series, period) DO UPDATE SET value = excluded.value
		`, ref, pt.Period.String(), pt.Value); err != nil {
			return fmt.Errorf("storing point %s/%s: %w", ref, pt.Period, err)
		}
	}
	return tx.Commit()
}

// Points implements Source. Period literals sort lexically within one
// periodicity, but ranges are still filtered in Go after parsing so mixed
// resolutions behave.
func (s *SQLiteSource) Points(ctx context.Context, ref string, from, to timeseries.Period) (timeseries.Series, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT period, value FROM series_points
		WHERE series = ? ORDER BY period ASC
	`, ref)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("querying points for %q: %w", ref, err)
	}
	defer rows.Close()

	var points []timeseries.Point
	var freq timeseries.Periodicity
	for rows.Next() {
		var literal string
		var val float64
		if err := rows.Scan(&literal, &val); err != nil {
			return timeseries.Series{}, err
		}
		period, err := timeseries.ParsePeriod(literal)
		if err != nil {
			return timeseries.Series{}, fmt.Errorf("stored period for %q: %w", ref, err)
		}
		freq = period.Freq
		points = append(points, timeseries.Point{Period: period, Value: val})
	}
	if err := rows.Err(); err != nil {
		return timeseries.Series{}, err
	}
	if len(points) == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}

	series, err := timeseries.New(freq, points...)
	if err != nil {
		return timeseries.Series{}, err
	}
	from, to = timeseries.ConvertRange(from, to, freq)
	out := series.Slice(from, to)
	if out.Len() == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: %q in [%s, %s]", ErrNotFound, ref, from, to)
	}
	return out, nil
}
