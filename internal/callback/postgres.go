package callback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
	"github.com/marketpay/marketpay/internal/recharge"
)

// PostgresStore persists callback records in PostgreSQL and settles against
// the recharge, account and ledger tables in one transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a callback store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindSettled reports whether the (orderNo, txnID) pair already settled.
func (s *PostgresStore) FindSettled(ctx context.Context, orderNo, txnID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM payment_callbacks
        WHERE order_no = $1 AND txn_id = $2 AND status = $3)`
	var settled bool
	if err := s.db.QueryRow(ctx, query, orderNo, txnID, StatusSuccess).Scan(&settled); err != nil {
		return false, fmt.Errorf("find settled callback: %w", err)
	}
	return settled, nil
}

// SaveRecord inserts a terminal record outside any transaction.
func (s *PostgresStore) SaveRecord(ctx context.Context, rec Record) (Record, error) {
	rec = withDefaults(rec)
	if err := insertRecord(ctx, s.db, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Settle runs the one-time credit. The conditional order transition inside the
// transaction is what makes replays harmless: only the first caller finds the
// order pending.
func (s *PostgresStore) Settle(ctx context.Context, rec Record) (Settlement, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Settlement{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	now := time.Now().UTC()
	order, err := recharge.MarkPaidTx(ctx, tx, rec.OrderNo, now)
	if err != nil {
		return Settlement{}, err
	}
	if order.Amount != rec.Amount {
		return Settlement{}, ErrAmountMismatch
	}

	if err := account.EnsureTx(ctx, tx, order.OwnerID, order.OwnerKind); err != nil {
		return Settlement{}, err
	}
	after, err := account.AdjustTx(ctx, tx, order.OwnerID, order.OwnerKind, account.FieldSpendable, order.Amount, 0)
	if err != nil {
		return Settlement{}, err
	}

	if _, err := ledger.InsertTx(ctx, tx, ledger.Entry{
		OwnerID:      order.OwnerID,
		OwnerKind:    order.OwnerKind,
		Direction:    ledger.DirectionCredit,
		Movement:     ledger.MovementPaymentSettle,
		Amount:       order.Amount,
		BalanceAfter: after,
		RelatedID:    order.ID,
		Memo:         fmt.Sprintf("recharge %s settled via %s", order.OrderNo, rec.Channel),
	}); err != nil {
		return Settlement{}, err
	}

	rec = withDefaults(rec)
	rec.Status = StatusSuccess
	rec.BusinessID = order.ID
	rec.ProcessedAt = &now
	if err := insertRecord(ctx, tx, rec); err != nil {
		return Settlement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Settlement{}, err
	}
	return Settlement{Record: rec, Order: order, BalanceAfter: after}, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRecord(ctx context.Context, q execer, rec Record) error {
	_, err := q.Exec(ctx, `INSERT INTO payment_callbacks
        (id, channel, order_no, txn_id, amount, payload, signature, signature_ok, status, business_id, created_at, processed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.Channel, rec.OrderNo, rec.TxnID, rec.Amount, rec.Payload, rec.Signature,
		rec.SignatureOK, rec.Status, rec.BusinessID, rec.CreatedAt, rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert callback record: %w", err)
	}
	return nil
}

func withDefaults(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}
