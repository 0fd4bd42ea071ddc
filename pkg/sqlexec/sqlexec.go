// Package sqlexec runs caller-supplied SQL against a local SQLite file, one
// transaction per statement.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "sqlite3"

// ErrEmptyStatement is returned for a blank statement. It is a caller
// mistake and no transaction is started.
var ErrEmptyStatement = errors.New("query is required")

// ExecError wraps a failure reported by the database engine.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string {
	return e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful statement.
type Result struct {
	// IsQuery is true when the statement was treated as a row-returning query.
	IsQuery bool
	Columns []string
	Rows    []map[string]any

	// RowsAffected is set for non-query statements when the driver reports it.
	RowsAffected int64
}

// Executor runs statements against one database handle.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the SQLite file at path. The file is created on first write.
func Open(path string, logger *zap.Logger) (*Executor, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	db, err := sql.Open(DriverName, filepath.Clean(path)+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an existing handle.
func New(db *sql.DB, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{db: db, logger: logger}
}

// Close closes the underlying handle.
func (e *Executor) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

// IsQuery reports whether statement is treated as a row-returning query.
func IsQuery(statement string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(statement)), "select")
}

// Execute runs statement in its own transaction. Queries return every row
// with []byte values converted to strings; other statements are committed.
func (e *Executor) Execute(ctx context.Context, statement string) (*Result, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, ErrEmptyStatement
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &ExecError{Err: err}
	}

	if IsQuery(statement) {
		result, err := queryRows(ctx, tx, statement)
		_ = tx.Rollback()
		if err != nil {
			return nil, &ExecError{Err: err}
		}
		e.logger.Debug("query executed", zap.Int("rows", len(result.Rows)))
		return result, nil
	}

	res, err := tx.ExecContext(ctx, statement)
	if err != nil {
		_ = tx.Rollback()
		return nil, &ExecError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &ExecError{Err: err}
	}

	result := &Result{}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	e.logger.Debug("statement committed", zap.Int64("rows_affected", result.RowsAffected))
	return result, nil
}

func queryRows(ctx context.Context, tx *sql.Tx, statement string) (*Result, error) {
	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{IsQuery: true, Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
