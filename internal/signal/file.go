package signal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

var requiredColumns = []string{"symbol", "side", "reference_price", "confidence", "strategy_id"}

// FileSource replays signals from a CSV or Parquet file, read through DuckDB.
// Rows are ordered by the time column when the file has one.
type FileSource struct {
	signals []types.Signal
	errs    []error

	mu  sync.Mutex
	pos int
}

// NewCSVSource loads every signal of a CSV file with a header row.
func NewCSVSource(path string, log *logger.Logger) (*FileSource, error) {
	return newFileSource(fmt.Sprintf("read_csv_auto('%s', header = true)", quote(path)), path, log)
}

// NewParquetSource loads every signal of a Parquet file.
func NewParquetSource(path string, log *logger.Logger) (*FileSource, error) {
	return newFileSource(fmt.Sprintf("read_parquet('%s')", quote(path)), path, log)
}

// NewFileSource picks the reader from the file extension.
func NewFileSource(path string, log *logger.Logger) (*FileSource, error) {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return NewParquetSource(path, log)
	}

	return NewCSVSource(path, log)
}

func quote(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

func newFileSource(table, path string, log *logger.Logger) (*FileSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to open duckdb", err)
	}
	defer db.Close()

	log = &logger.Logger{Logger: log.Named("signal").With(zap.String("path", path))}

	_, err = db.Exec(fmt.Sprintf("CREATE VIEW signals AS SELECT * FROM %s", table))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to read signal file %s", path)
	}

	columns, err := viewColumns(db)
	if err != nil {
		return nil, err
	}

	for _, c := range requiredColumns {
		if !columns[c] {
			return nil, errors.Newf(errors.ErrCodeMissingParameter, "signal file %s has no %s column", path, c)
		}
	}

	query := sq.Select(
		"CAST(symbol AS VARCHAR)",
		"CAST(side AS VARCHAR)",
		"CAST(reference_price AS DOUBLE)",
		"CAST(confidence AS DOUBLE)",
		"CAST(strategy_id AS VARCHAR)",
	).From("signals")

	hasTime := columns["time"]
	if hasTime {
		query = query.Column("CAST(time AS TIMESTAMP)").OrderBy("time ASC")
	}

	hasMarket := columns["volatility"] && columns["trend"]
	if hasMarket {
		query = query.Column("CAST(volatility AS DOUBLE)").Column("CAST(trend AS DOUBLE)")
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	rows, err := db.Query(stmt, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query signal file %s", path)
	}
	defer rows.Close()

	source := &FileSource{}

	for rows.Next() {
		var (
			s          types.Signal
			side       string
			ts         sql.NullTime
			volatility sql.NullFloat64
			trend      sql.NullFloat64
		)

		dest := []any{&s.Symbol, &side, &s.ReferencePrice, &s.Confidence, &s.StrategyID}
		if hasTime {
			dest = append(dest, &ts)
		}

		if hasMarket {
			dest = append(dest, &volatility, &trend)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal row", err)
		}

		s.Side = types.Side(strings.ToUpper(side))
		s.Time = time.Time{}

		if ts.Valid {
			s.Time = ts.Time.UTC()
		}

		s.Market = optional.None[types.MarketState]()
		if volatility.Valid && trend.Valid {
			s.Market = optional.Some(types.MarketState{Volatility: volatility.Float64, Trend: trend.Float64})
		}

		source.signals = append(source.signals, s)
		source.errs = append(source.errs, s.Validate())
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read signal rows", err)
	}

	log.Debug("Signal file loaded", zap.Int("signals", len(source.signals)))

	return source, nil
}

func viewColumns(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT * FROM signals LIMIT 0")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect signal file", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect signal file", err)
	}

	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[strings.ToLower(n)] = true
	}

	return columns, nil
}

func (f *FileSource) Next(ctx context.Context) (types.Signal, error) {
	if err := ctx.Err(); err != nil {
		return types.Signal{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pos >= len(f.signals) {
		return types.Signal{}, ErrEndOfStream
	}

	s, err := f.signals[f.pos], f.errs[f.pos]
	f.pos++

	if err != nil {
		return types.Signal{}, err
	}

	return s, nil
}

func (f *FileSource) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pos = 0

	return nil
}

func (f *FileSource) Count() int {
	return len(f.signals)
}

func (f *FileSource) Close() error {
	return nil
}
