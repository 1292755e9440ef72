package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rower is satisfied by both *pgxpool.Pool and pgx.Tx, so the guarded mutation
// can run standalone or inside a caller-owned transaction.
type rower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds an account store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ensure creates the account row with zero balances if absent.
func (s *PostgresStore) Ensure(ctx context.Context, ownerID string, kind OwnerKind) error {
	return ensure(ctx, s.db, ownerID, kind)
}

// Get returns the stored account, or a zero-balance account when the owner has
// never held funds. Accounts are created lazily on the first mutation.
func (s *PostgresStore) Get(ctx context.Context, ownerID string, kind OwnerKind) (Account, error) {
	const query = `SELECT spendable, frozen, silver_spendable, silver_frozen, updated_at
        FROM accounts WHERE owner_id = $1 AND owner_kind = $2`
	acct := Account{OwnerID: ownerID, OwnerKind: kind}
	err := s.db.QueryRow(ctx, query, ownerID, kind).Scan(
		&acct.Spendable, &acct.Frozen, &acct.SilverSpendable, &acct.SilverFrozen, &acct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return acct, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

// Adjust applies the guarded mutation outside any enclosing transaction. The
// guard and the delta are one UPDATE statement, so concurrent callers cannot
// both pass the same guard.
func (s *PostgresStore) Adjust(ctx context.Context, ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error) {
	return AdjustTx(ctx, s.db, ownerID, kind, field, delta, guardMin)
}

// EnsureTx is the transaction-scoped variant of Ensure.
func EnsureTx(ctx context.Context, tx pgx.Tx, ownerID string, kind OwnerKind) error {
	return ensure(ctx, tx, ownerID, kind)
}

func ensure(ctx context.Context, q execer, ownerID string, kind OwnerKind) error {
	_, err := q.Exec(ctx, `INSERT INTO accounts (owner_id, owner_kind) VALUES ($1, $2)
        ON CONFLICT (owner_id, owner_kind) DO NOTHING`, ownerID, kind)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// AdjustTx applies delta to the named balance field when the pre-mutation value
// is at least guardMin, as a single UPDATE evaluated by the storage engine.
// Zero matched rows means the guard failed (or the row does not exist, which
// for a debit is the same thing) and is reported as ErrInsufficientFunds.
// Returns the post-mutation value of the field.
func AdjustTx(ctx context.Context, q rower, ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error) {
	col, err := column(field)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`UPDATE accounts SET %[1]s = %[1]s + $3, updated_at = now()
        WHERE owner_id = $1 AND owner_kind = $2 AND %[1]s >= $4
        RETURNING %[1]s`, col)
	var after int64
	if err := q.QueryRow(ctx, query, ownerID, kind, delta, guardMin).Scan(&after); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("adjust %s: %w", field, err)
	}
	return after, nil
}

// column maps a Field to its accounts column, rejecting anything else so the
// statement above never interpolates caller input.
func column(f Field) (string, error) {
	switch f {
	case FieldSpendable, FieldFrozen, FieldSilverSpendable, FieldSilverFrozen:
		return string(f), nil
	default:
		return "", fmt.Errorf("unknown balance field %q", f)
	}
}
