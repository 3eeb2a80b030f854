package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/version"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite3"
)

const schemaVersionKey = "schema_version"

// SQLLedger implements Ledger on DuckDB or SQLite through database/sql.
type SQLLedger struct {
	db     *sql.DB
	driver string
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	clock  func() time.Time
}

// Option configures a SQLLedger.
type Option func(*SQLLedger)

// WithClock replaces the wall clock used for day scoping and default timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *SQLLedger) {
		l.clock = clock
	}
}

// NewSQLLedger opens the database, creates the tables and checks the stored schema version.
func NewSQLLedger(driver, dsn string, log *logger.Logger, opts ...Option) (*SQLLedger, error) {
	if driver != DriverDuckDB && driver != DriverSQLite {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeLedgerInitFailed, err, "failed to open %s ledger", driver)
	}

	// One connection serializes every write transaction, and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)

	l := &SQLLedger{
		db:     db,
		driver: driver,
		logger: log.Named("ledger"),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	ctx := context.Background()
	if err := l.initialize(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	l.logger.Info("Ledger opened", zap.String("driver", driver), zap.String("dsn", dsn))

	return l, nil
}

// initialize creates the necessary tables for tracking trades and positions.
func (l *SQLLedger) initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ledger_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			entry_price DOUBLE NOT NULL,
			quantity DOUBLE NOT NULL,
			stop_loss DOUBLE NOT NULL,
			take_profit DOUBLE NOT NULL,
			status TEXT NOT NULL,
			strategy_id TEXT NOT NULL,
			opened_at TIMESTAMP NOT NULL,
			closed_at TIMESTAMP,
			exit_price DOUBLE,
			realized_pnl DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			position_id TEXT,
			kind TEXT NOT NULL,
			order_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			price DOUBLE NOT NULL,
			quantity DOUBLE NOT NULL,
			commission DOUBLE NOT NULL,
			pnl DOUBLE NOT NULL,
			strategy_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_position ON trades (position_id)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to create ledger schema", err)
		}
	}

	return l.checkSchemaVersion(ctx)
}

func (l *SQLLedger) checkSchemaVersion(ctx context.Context) error {
	var stored string

	err := l.sq.Select("value").
		From("ledger_meta").
		Where(squirrel.Eq{"key": schemaVersionKey}).
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&stored)

	if err == sql.ErrNoRows {
		_, err = l.sq.Insert("ledger_meta").
			Columns("key", "value").
			Values(schemaVersionKey, version.SchemaVersion).
			RunWith(l.db).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to write schema version", err)
		}

		return nil
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to read schema version", err)
	}

	return version.CheckSchemaCompatibility(version.SchemaVersion, stored)
}

// HealthCheck runs a trivial query.
func (l *SQLLedger) HealthCheck(ctx context.Context) bool {
	var one int
	if err := l.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		l.logger.Error("Ledger health check failed", zap.Error(err))

		return false
	}

	return one == 1
}

// Close closes the database.
func (l *SQLLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, "failed to close ledger", err)
	}

	l.logger.Info("Ledger closed")

	return nil
}

// Export writes the positions and trades tables to Parquet files in dir. DuckDB only.
func (l *SQLLedger) Export(ctx context.Context, dir string) ([]string, error) {
	if l.driver != DriverDuckDB {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "export requires the duckdb driver, ledger uses %s", l.driver)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistence, "failed to create export directory", err)
	}

	files := make([]string, 0, 2)

	for _, table := range []string{"positions", "trades"} {
		path := filepath.Join(dir, table+".parquet")

		// COPY does not take bind parameters
		_, err := l.db.ExecContext(ctx, fmt.Sprintf(`COPY %s TO %s (FORMAT PARQUET)`, table, quoteLiteral(path)))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodePersistence, err, "failed to export %s", table)
		}

		files = append(files, path)
	}

	l.logger.Info("Exported ledger to Parquet", zap.Strings("files", files))

	return files, nil
}

func (l *SQLLedger) now() time.Time {
	return l.clock().UTC()
}

// withTx runs fn in a transaction and commits it, rolling back on error.
func (l *SQLLedger) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, "failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, "failed to commit transaction", err)
	}

	return nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
