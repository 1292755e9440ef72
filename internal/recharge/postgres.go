package recharge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
)

// PostgresStore persists recharge orders in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a recharge store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const orderColumns = `id, order_no, owner_id, owner_kind, amount, channel, status, created_at, expires_at, paid_at`

// CreateOrder inserts a pending top-up order.
func (s *PostgresStore) CreateOrder(ctx context.Context, o Order) (Order, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO recharge_orders
        (id, order_no, owner_id, owner_kind, amount, channel, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.OrderNo, o.OwnerID, o.OwnerKind, o.Amount, o.Channel, StatusPending, o.CreatedAt, o.ExpiresAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert recharge order: %w", err)
	}
	o.Status = StatusPending
	return o, nil
}

// GetByOrderNo fetches one order by the gateway-facing reference.
func (s *PostgresStore) GetByOrderNo(ctx context.Context, orderNo string) (Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM recharge_orders WHERE order_no = $1`, orderNo)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

// ListByOwner returns the owner's orders, most recent first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM recharge_orders
        WHERE owner_id = $1 AND owner_kind = $2
        ORDER BY created_at DESC LIMIT $3`, ownerID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list recharge orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Adjust applies the admin adjustment and its finance entry in one transaction.
func (s *PostgresStore) Adjust(ctx context.Context, in Adjustment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := account.EnsureTx(ctx, tx, in.OwnerID, in.OwnerKind); err != nil {
		return 0, err
	}

	guard := int64(0)
	direction := ledger.DirectionCredit
	amount := in.Amount
	if in.Amount < 0 {
		guard = -in.Amount
		direction = ledger.DirectionDebit
		amount = -in.Amount
	}

	after, err := account.AdjustTx(ctx, tx, in.OwnerID, in.OwnerKind, in.Field, in.Amount, guard)
	if err != nil {
		return 0, err
	}

	if _, err := ledger.InsertTx(ctx, tx, ledger.Entry{
		OwnerID:      in.OwnerID,
		OwnerKind:    in.OwnerKind,
		Currency:     currencyOf(in.Field),
		Direction:    direction,
		Movement:     ledger.MovementAdminAdjust,
		Amount:       amount,
		BalanceAfter: after,
		RelatedID:    in.RelatedID,
		Memo:         in.Memo,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return after, nil
}

// ExpireStale transitions pending orders whose deadline passed.
func (s *PostgresStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE recharge_orders SET status = $1
        WHERE status = $2 AND expires_at <= $3`, StatusExpired, StatusPending, now)
	if err != nil {
		return 0, fmt.Errorf("expire recharge orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkPaidTx conditionally settles an order inside the caller's transaction.
// The WHERE status = 'pending' clause is the exactly-once guard: a replayed
// callback finds zero matching rows and gets ErrOrderNotPending instead of a
// second credit.
func MarkPaidTx(ctx context.Context, tx pgx.Tx, orderNo string, at time.Time) (Order, error) {
	row := tx.QueryRow(ctx, `UPDATE recharge_orders SET status = $2, paid_at = $3
        WHERE order_no = $1 AND status = $4
        RETURNING `+orderColumns, orderNo, StatusPaid, at, StatusPending)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var status Status
		probe := tx.QueryRow(ctx, `SELECT status FROM recharge_orders WHERE order_no = $1`, orderNo)
		if probeErr := probe.Scan(&status); probeErr != nil {
			if errors.Is(probeErr, pgx.ErrNoRows) {
				return Order{}, ErrOrderNotFound
			}
			return Order{}, probeErr
		}
		return Order{}, ErrOrderNotPending
	}
	if err != nil {
		return Order{}, fmt.Errorf("mark recharge paid: %w", err)
	}
	return o, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNo, &o.OwnerID, &o.OwnerKind, &o.Amount, &o.Channel,
		&o.Status, &o.CreatedAt, &o.ExpiresAt, &o.PaidAt)
	return o, err
}

func currencyOf(f account.Field) account.Currency {
	if f == account.FieldSilverSpendable || f == account.FieldSilverFrozen {
		return account.CurrencySilver
	}
	return account.CurrencyPrimary
}
