// Package postgres persists the inventory, wallet and run history in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v5"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage"
)

//go:embed schema.sql
var schema string

const (
	inventoryTable = "inventory"
	colKey         = "key"
	colAmount      = "amount"
	colUpdatedAt   = "updated_at"

	resultsTable  = "session_results"
	colSessionID  = "session_id"
	colOutcome    = "outcome"
	colZone       = "zone"
	colRewards    = "rewards"
	colFinishedAt = "finished_at"

	checkViolation = "23514"
	connectTimeout = 30 * time.Second
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store persists inventory counters in PostgreSQL. Writes inside a
// trm transaction context join that transaction.
type Store struct {
	dbc       *pgxpool.Pool
	txManager trm.Manager
	getter    *trmpgx.CtxGetter
}

// Open connects to dsn, pings and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dbc, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	// the database may still be starting next to us
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, dbc.Ping(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(connectTimeout))
	if err != nil {
		dbc.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s, err := New(dbc)
	if err != nil {
		dbc.Close()
		return nil, err
	}
	if _, err := dbc.Exec(ctx, schema); err != nil {
		dbc.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// New wraps an existing pool.
func New(dbc *pgxpool.Pool) (*Store, error) {
	m, err := manager.New(trmpgx.NewDefaultFactory(dbc))
	if err != nil {
		return nil, fmt.Errorf("create tx manager: %w", err)
	}
	return &Store{dbc: dbc, txManager: m, getter: trmpgx.DefaultCtxGetter}, nil
}

// TxManager exposes the transaction manager so callers can group writes.
func (s *Store) TxManager() trm.Manager { return s.txManager }

func (s *Store) Close() error {
	s.dbc.Close()
	return nil
}

func (s *Store) conn(ctx context.Context) trmpgx.Tr {
	return s.getter.DefaultTrOrDB(ctx, s.dbc)
}

func incrementQuery(key string, amount int, now time.Time) (string, []any, error) {
	return psql.Insert(inventoryTable).
		Columns(colKey, colAmount, colUpdatedAt).
		Values(key, int64(amount), now).
		Suffix("ON CONFLICT (" + colKey + ") DO UPDATE SET " +
			colAmount + " = " + inventoryTable + "." + colAmount + " + EXCLUDED." + colAmount + ", " +
			colUpdatedAt + " = EXCLUDED." + colUpdatedAt +
			" RETURNING " + colAmount).
		ToSql()
}

func (s *Store) Increment(ctx context.Context, key string, amount int) (int, error) {
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}
	sqlStr, args, err := incrementQuery(key, amount, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	var total int64
	if err := s.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("%s: %w", key, storage.ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return int(total), nil
}

// IncrementAll applies the deltas in one transaction.
func (s *Store) IncrementAll(ctx context.Context, deltas []game.Delta) (map[string]int, error) {
	out := make(map[string]int, len(deltas))
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, d := range deltas {
			total, err := s.Increment(txCtx, d.Key, d.Amount)
			if err != nil {
				return err
			}
			out[d.Key] = total
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Load(ctx context.Context) (map[string]int, error) {
	sqlStr, args, err := psql.Select(colKey, colAmount).From(inventoryTable).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var amount int64
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out[key] = int(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return out, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	sqlStr, args, err := psql.Delete(inventoryTable).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.conn(ctx).Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("clear inventory: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context) (int, error) {
	sqlStr, args, err := psql.Select(colAmount).From(inventoryTable).Where(sq.Eq{colKey: reward.KeyCash}).ToSql()
	if err != nil {
		return 0, err
	}
	var amount int64
	err = s.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return int(amount), nil
}

func debitQuery(amount int, now time.Time) (string, []any, error) {
	return psql.Update(inventoryTable).
		Set(colAmount, sq.Expr(colAmount+" - ?", int64(amount))).
		Set(colUpdatedAt, now).
		Where(sq.Eq{colKey: reward.KeyCash}).
		Where(sq.GtOrEq{colAmount: int64(amount)}).
		ToSql()
}

// Debit subtracts amount from the Cash counter unless that would overdraw it.
func (s *Store) Debit(ctx context.Context, amount int) error {
	if amount < 0 {
		return storage.ErrNegativeAmount
	}
	if amount == 0 {
		return nil
	}
	sqlStr, args, err := debitQuery(amount, time.Now().UTC())
	if err != nil {
		return err
	}
	tag, err := s.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}

func (s *Store) RecordResult(ctx context.Context, r storage.Result) error {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	sqlStr, args, err := psql.Insert(resultsTable).
		Columns(colSessionID, colOutcome, colZone, colRewards, colFinishedAt).
		Values(r.SessionID, string(r.Outcome), r.Zone, r.Rewards, finished.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.conn(ctx).Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, limit int) ([]storage.Result, error) {
	q := psql.Select(colSessionID, colOutcome, colZone, colRewards, colFinishedAt).
		From(resultsTable).
		OrderBy(colFinishedAt + " DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var out []storage.Result
	for rows.Next() {
		var r storage.Result
		var outcome string
		if err := rows.Scan(&r.SessionID, &outcome, &r.Zone, &r.Rewards, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Outcome = storage.Outcome(outcome)
		r.FinishedAt = r.FinishedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == checkViolation
}

var _ storage.Store = (*Store)(nil)
