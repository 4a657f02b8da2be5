package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification: not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, memberID string, limit int) ([]Notification, error) {
	const query = `
		SELECT id::text, member_id::text, title, body, category, read_at, created_at
		FROM notifications
		WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("notification: list: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.MemberID, &n.Title, &n.Body, &n.Category, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notification: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification: iterate: %w", err)
	}
	return out, nil
}

func (r *Repository) UnreadCount(ctx context.Context, memberID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE member_id = $1 AND read_at IS NULL`, memberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notification: unread count: %w", err)
	}
	return count, nil
}

// MarkRead stamps read_at once; repeated calls keep the first timestamp.
func (r *Repository) MarkRead(ctx context.Context, memberID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `
		UPDATE notifications
		SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND member_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, memberID)
	if err != nil {
		return fmt.Errorf("notification: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateForLoanOwner notifies whoever owns the loan.
func (r *Repository) CreateForLoanOwner(ctx context.Context, loanID, title, body, category string) (Notification, error) {
	if _, err := uuid.Parse(loanID); err != nil {
		return Notification{}, ErrNotFound
	}
	const query = `
		INSERT INTO notifications (member_id, title, body, category)
		SELECT l.member_id, $2, $3, $4
		FROM loans l
		WHERE l.id = $1
		RETURNING id::text, member_id::text, title, body, category, read_at, created_at
	`

	var n Notification
	err := r.pool.QueryRow(ctx, query, loanID, title, body, category).
		Scan(&n.ID, &n.MemberID, &n.Title, &n.Body, &n.Category, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("notification: create: %w", err)
	}
	return n, nil
}
