package loan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound signals the loan does not exist or belongs to another member.
var ErrNotFound = errors.New("loan: not found")

// Repository provides read access to member loans.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const loanColumns = `id::text, member_id::text, principal::text, annual_rate::text, term_months, purpose, status, applied_at`

// ListForMember fetches a member's loans, newest application first.
func (r *Repository) ListForMember(ctx context.Context, memberID string) ([]Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE member_id = $1 ORDER BY applied_at DESC`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("loan: list: %w", err)
	}
	defer rows.Close()

	loans := make([]Loan, 0, 8)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("loan: scan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loan: iterate: %w", err)
	}
	return loans, nil
}

// GetForMember fetches one loan owned by the member.
func (r *Repository) GetForMember(ctx context.Context, memberID, loanID string) (Loan, error) {
	// ids come from URLs; a malformed one cannot name a row
	if _, err := uuid.Parse(loanID); err != nil {
		return Loan{}, ErrNotFound
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 AND member_id = $2`

	l, err := scanLoan(r.pool.QueryRow(ctx, query, loanID, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, fmt.Errorf("loan: get: %w", err)
	}
	return l, nil
}

func scanLoan(row pgx.Row) (Loan, error) {
	var (
		l         Loan
		principal string
		rate      string
	)
	if err := row.Scan(&l.ID, &l.MemberID, &principal, &rate, &l.TermMonths, &l.Purpose, &l.Status, &l.AppliedAt); err != nil {
		return Loan{}, err
	}
	var err error
	if l.Principal, err = decimal.NewFromString(principal); err != nil {
		return Loan{}, fmt.Errorf("parse principal: %w", err)
	}
	if l.AnnualRate, err = decimal.NewFromString(rate); err != nil {
		return Loan{}, fmt.Errorf("parse annual rate: %w", err)
	}
	return l, nil
}
