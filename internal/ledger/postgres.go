package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpay/marketpay/internal/account"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLedger persists finance entries in PostgreSQL. The table carries no
// update path; Record is the only write.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed finance ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Record appends one entry outside any enclosing transaction. Engine stores
// that pair entries with balance mutations use InsertTx instead.
func (l *PostgresLedger) Record(ctx context.Context, e Entry) (Entry, error) {
	return insert(ctx, l.db, e)
}

// InsertTx appends one entry inside the caller's transaction, so the entry
// commits if and only if the paired balance mutation commits.
func InsertTx(ctx context.Context, tx pgx.Tx, e Entry) (Entry, error) {
	return insert(ctx, tx, e)
}

func insert(ctx context.Context, q execer, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Currency == "" {
		e.Currency = account.CurrencyPrimary
	}
	_, err := q.Exec(ctx, `INSERT INTO finance_entries
        (id, owner_id, owner_kind, currency, direction, movement, amount, balance_after, related_id, memo, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.OwnerID, e.OwnerKind, e.Currency, e.Direction, e.Movement,
		e.Amount, e.BalanceAfter, e.RelatedID, e.Memo, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("record finance entry: %w", err)
	}
	return e, nil
}

// ListByOwner returns the owner's entries, most recent first.
func (l *PostgresLedger) ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT id, owner_id, owner_kind, currency, direction, movement,
        amount, balance_after, related_id, memo, created_at
        FROM finance_entries WHERE owner_id = $1 AND owner_kind = $2
        ORDER BY created_at DESC, id DESC LIMIT $3`, ownerID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list finance entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.OwnerKind, &e.Currency, &e.Direction, &e.Movement,
			&e.Amount, &e.BalanceAfter, &e.RelatedID, &e.Memo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finance entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumByOwner totals the signed combined-balance deltas for the owner. The
// neutral escrow movements are excluded in SQL to mirror Entry.TotalDelta.
func (l *PostgresLedger) SumByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, currency account.Currency) (int64, error) {
	const query = `SELECT COALESCE(SUM(CASE
            WHEN movement IN ('withdraw_reserve', 'withdraw_refund') THEN 0
            WHEN movement = 'withdraw_release' THEN -amount
            WHEN direction = 'debit' THEN -amount
            ELSE amount END), 0)
        FROM finance_entries
        WHERE owner_id = $1 AND owner_kind = $2 AND currency = $3`
	var sum int64
	if err := l.db.QueryRow(ctx, query, ownerID, kind, currency).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum finance entries: %w", err)
	}
	return sum, nil
}
