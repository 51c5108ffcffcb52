package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// QueryObserver receives the duration of every statement run through a Gateway.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type runner interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Gateway owns the database handle and scopes transactions.
type Gateway struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewGateway constructs a Gateway. observer may be nil.
func NewGateway(db *sqlx.DB, observer QueryObserver) *Gateway {
	return &Gateway{db: db, observer: observer}
}

// Reader returns a session over the pooled handle for single-statement reads.
func (g *Gateway) Reader() *Session {
	return &Session{run: g.db, observer: g.observer}
}

// WithinTx runs fn inside a transaction and commits once if fn succeeds.
// Any error or panic rolls the transaction back.
func (g *Gateway) WithinTx(ctx context.Context, fn func(*Session) error) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Session{run: tx, observer: g.observer}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// Session executes statements on a pooled handle or an open transaction.
type Session struct {
	run      runner
	observer QueryObserver
}

func (s *Session) observe(label string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Exec runs a statement that returns no rows.
func (s *Session) Exec(ctx context.Context, label string, st Statement) (sql.Result, error) {
	defer s.observe(label, time.Now())
	res, err := s.run.ExecContext(ctx, s.run.Rebind(st.Query), st.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return res, nil
}

// InsertID runs an INSERT ... RETURNING id statement.
func (s *Session) InsertID(ctx context.Context, label string, st Statement) (int64, error) {
	defer s.observe(label, time.Now())
	var id int64
	if err := s.run.QueryRowxContext(ctx, s.run.Rebind(st.Query), st.Args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return id, nil
}

// Get scans a single row into dest. A missing row yields sql.ErrNoRows unwrapped.
func (s *Session) Get(ctx context.Context, label string, dest interface{}, st Statement) error {
	defer s.observe(label, time.Now())
	if err := s.run.GetContext(ctx, dest, s.run.Rebind(st.Query), st.Args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// Select scans every row into dest.
func (s *Session) Select(ctx context.Context, label string, dest interface{}, st Statement) error {
	defer s.observe(label, time.Now())
	if err := s.run.SelectContext(ctx, dest, s.run.Rebind(st.Query), st.Args...); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// SelectMaps returns every row keyed by column name. Byte slices are
// converted to strings so rows serialise cleanly.
func (s *Session) SelectMaps(ctx context.Context, label string, st Statement) ([]map[string]interface{}, error) {
	defer s.observe(label, time.Now())
	rows, err := s.run.QueryxContext(ctx, s.run.Rebind(st.Query), st.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer rows.Close() //nolint:errcheck

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", label, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return result, nil
}

// IsUniqueViolation reports whether err is a unique constraint failure on either driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
