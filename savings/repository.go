package savings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound signals the account does not exist or belongs to another member.
var ErrNotFound = errors.New("savings: account not found")

// Repository provides read access to savings accounts and their ledger.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id::text, member_id::text, account_no, kind, balance::text, status, opened_at`

// ListAccounts returns the member's accounts ordered by opening date.
func (r *Repository) ListAccounts(ctx context.Context, memberID string) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM savings_accounts WHERE member_id = $1 ORDER BY opened_at`, memberID)
	if err != nil {
		return nil, fmt.Errorf("savings: list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]Account, 0, 2)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("savings: scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("savings: iterate accounts: %w", err)
	}
	return out, nil
}

// GetAccount fetches one account owned by the member.
func (r *Repository) GetAccount(ctx context.Context, memberID, accountID string) (Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return Account{}, ErrNotFound
	}
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM savings_accounts WHERE id = $1 AND member_id = $2`, accountID, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("savings: get account: %w", err)
	}
	return a, nil
}

// ListTransactions returns the newest ledger entries of an account.
func (r *Repository) ListTransactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	const query = `
		SELECT id::text, account_id::text, kind, amount::text, balance_after::text, reference, posted_at
		FROM savings_transactions
		WHERE account_id = $1
		ORDER BY posted_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("savings: list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]Transaction, 0, limit)
	for rows.Next() {
		var (
			tx            Transaction
			amount, after string
		)
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Kind, &amount, &after, &tx.Reference, &tx.PostedAt); err != nil {
			return nil, fmt.Errorf("savings: scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("savings: parse amount: %w", err)
		}
		if tx.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, fmt.Errorf("savings: parse balance: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("savings: iterate transactions: %w", err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a       Account
		balance string
	)
	if err := row.Scan(&a.ID, &a.MemberID, &a.AccountNo, &a.Kind, &balance, &a.Status, &a.OpenedAt); err != nil {
		return Account{}, err
	}
	var err error
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("parse balance: %w", err)
	}
	return a, nil
}
