package withdrawal

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

// PostgresStore runs the escrow state machine against PostgreSQL. Every
// operation is a single transaction; the account row is never locked across a
// network round trip because the guarded UPDATE is the only synchronization.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a withdrawal store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, owner_id, owner_kind, currency, amount, fee, net_payout,
        instrument_id, status, remark, decided_by, decided_at, created_at`

// CreateWithHold reserves the requested amount in escrow and persists the
// pending request, all in one transaction.
func (s *PostgresStore) CreateWithHold(ctx context.Context, req Request) (Request, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := account.EnsureTx(ctx, tx, req.OwnerID, req.OwnerKind); err != nil {
		return Request{}, err
	}

	spendAfter, err := account.AdjustTx(ctx, tx, req.OwnerID, req.OwnerKind,
		account.SpendableField(req.Currency), -req.Amount, req.Amount)
	if err != nil {
		return Request{}, err
	}
	if _, err := account.AdjustTx(ctx, tx, req.OwnerID, req.OwnerKind,
		account.FrozenField(req.Currency), req.Amount, 0); err != nil {
		return Request{}, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO withdrawal_requests
        (id, owner_id, owner_kind, currency, amount, fee, net_payout, instrument_id, status, remark, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.OwnerID, req.OwnerKind, req.Currency, req.Amount, req.Fee,
		req.NetPayout, req.InstrumentID, StatusPending, req.Remark, req.CreatedAt); err != nil {
		return Request{}, fmt.Errorf("insert withdrawal: %w", err)
	}

	if _, err := ledger.InsertTx(ctx, tx, ledger.Entry{
		OwnerID:      req.OwnerID,
		OwnerKind:    req.OwnerKind,
		Currency:     req.Currency,
		Direction:    ledger.DirectionDebit,
		Movement:     ledger.MovementWithdrawReserve,
		Amount:       req.Amount,
		BalanceAfter: spendAfter,
		RelatedID:    req.ID,
		Memo:         "withdrawal requested, funds held in escrow",
	}); err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = StatusPending
	return req, nil
}

// Decide transitions a pending request to its terminal state. The transition
// itself is the guard: the UPDATE matches only while status is still pending,
// so a duplicate approve cannot release escrow twice.
func (s *PostgresStore) Decide(ctx context.Context, id string, decision Decision, actorID, remark string, at time.Time) (Request, error) {
	status := StatusRejected
	if decision == DecisionApprove {
		status = StatusCompleted
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	req := Request{ID: id, Status: status, Remark: remark, DecidedBy: actorID, DecidedAt: &at}
	err = tx.QueryRow(ctx, `UPDATE withdrawal_requests
        SET status = $2, decided_by = $3, decided_at = $4, remark = $5
        WHERE id = $1 AND status = $6
        RETURNING owner_id, owner_kind, currency, amount, fee, net_payout, instrument_id, created_at`,
		id, status, actorID, at, remark, StatusPending).Scan(
		&req.OwnerID, &req.OwnerKind, &req.Currency, &req.Amount, &req.Fee,
		&req.NetPayout, &req.InstrumentID, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return Request{}, getErr
		}
		return current, ErrAlreadyDecided
	}
	if err != nil {
		return Request{}, fmt.Errorf("decide withdrawal: %w", err)
	}

	frozen := account.FrozenField(req.Currency)
	switch decision {
	case DecisionApprove:
		frozenAfter, err := account.AdjustTx(ctx, tx, req.OwnerID, req.OwnerKind, frozen, -req.Amount, req.Amount)
		if err != nil {
			return Request{}, err
		}
		if _, err := ledger.InsertTx(ctx, tx, ledger.Entry{
			OwnerID:      req.OwnerID,
			OwnerKind:    req.OwnerKind,
			Currency:     req.Currency,
			Direction:    ledger.DirectionDebit,
			Movement:     ledger.MovementWithdrawRelease,
			Amount:       req.Amount,
			BalanceAfter: frozenAfter,
			RelatedID:    req.ID,
			Memo:         fmt.Sprintf("withdrawal approved: payout %d, fee %d", req.NetPayout, req.Fee),
		}); err != nil {
			return Request{}, err
		}
	default:
		if _, err := account.AdjustTx(ctx, tx, req.OwnerID, req.OwnerKind, frozen, -req.Amount, req.Amount); err != nil {
			return Request{}, err
		}
		spendAfter, err := account.AdjustTx(ctx, tx, req.OwnerID, req.OwnerKind,
			account.SpendableField(req.Currency), req.Amount, 0)
		if err != nil {
			return Request{}, err
		}
		if _, err := ledger.InsertTx(ctx, tx, ledger.Entry{
			OwnerID:      req.OwnerID,
			OwnerKind:    req.OwnerKind,
			Currency:     req.Currency,
			Direction:    ledger.DirectionCredit,
			Movement:     ledger.MovementWithdrawRefund,
			Amount:       req.Amount,
			BalanceAfter: spendAfter,
			RelatedID:    req.ID,
			Memo:         "withdrawal rejected, escrow returned",
		}); err != nil {
			return Request{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Get fetches one withdrawal request.
func (s *PostgresStore) Get(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM withdrawal_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// ListByOwner returns the owner's withdrawal requests, most recent first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+requestColumns+` FROM withdrawal_requests
        WHERE owner_id = $1 AND owner_kind = $2
        ORDER BY created_at DESC LIMIT $3`, ownerID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.OwnerID, &req.OwnerKind, &req.Currency, &req.Amount,
		&req.Fee, &req.NetPayout, &req.InstrumentID, &req.Status, &req.Remark,
		&req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	return req, err
}
