// Package sqlite persists the inventory, wallet and run history in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage"
	"github.com/xtding233/riskwheel/internal/storage/sqlite/migrations"
)

// Store persists inventory counters in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps increments serialized
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const upsertSQL = `INSERT INTO inventory (key, amount, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET amount = amount + excluded.amount, updated_at = excluded.updated_at
RETURNING amount`

func increment(ctx context.Context, q execer, key string, amount int) (int, error) {
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}
	var total int
	err := q.QueryRowContext(ctx, upsertSQL, key, amount, time.Now().UTC().UnixMilli()).Scan(&total)
	if err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("%s: %w", key, storage.ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return total, nil
}

func (s *Store) Increment(ctx context.Context, key string, amount int) (int, error) {
	return increment(ctx, s.sqlDB, key, amount)
}

// IncrementAll applies the deltas in one transaction.
func (s *Store) IncrementAll(ctx context.Context, deltas []game.Delta) (map[string]int, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	out := make(map[string]int, len(deltas))
	for _, d := range deltas {
		total, err := increment(ctx, tx, d.Key, d.Amount)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		out[d.Key] = total
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *Store) Load(ctx context.Context) (map[string]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, amount FROM inventory`)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var amount int
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out[key] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return out, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("clear inventory: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context) (int, error) {
	var amount int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT amount FROM inventory WHERE key = ?`, reward.KeyCash).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return amount, nil
}

// Debit subtracts amount from the Cash counter. The amount >= 0 check on the
// table rejects overdrafts.
func (s *Store) Debit(ctx context.Context, amount int) error {
	if amount < 0 {
		return storage.ErrNegativeAmount
	}
	if amount == 0 {
		return nil
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE inventory SET amount = amount - ?, updated_at = ? WHERE key = ?`,
		amount, time.Now().UTC().UnixMilli(), reward.KeyCash)
	if err != nil {
		if isCheckViolation(err) {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("debit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}

func (s *Store) RecordResult(ctx context.Context, r storage.Result) error {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO session_results (session_id, outcome, zone, rewards, finished_at) VALUES (?, ?, ?, ?, ?)`,
		r.SessionID, string(r.Outcome), r.Zone, r.Rewards, finished.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, limit int) ([]storage.Result, error) {
	query := `SELECT session_id, outcome, zone, rewards, finished_at FROM session_results ORDER BY finished_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var out []storage.Result
	for rows.Next() {
		var r storage.Result
		var outcome string
		var finished int64
		if err := rows.Scan(&r.SessionID, &outcome, &r.Zone, &r.Rewards, &finished); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Outcome = storage.Outcome(outcome)
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}

func isCheckViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_CHECK
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint failed")
}

var _ storage.Store = (*Store)(nil)
