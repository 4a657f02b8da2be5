package signoff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals that no request exists for the token.
	ErrNotFound = errors.New("signoff: request not found")
	// ErrDuplicateToken signals a token collision on insert.
	ErrDuplicateToken = errors.New("signoff: token already exists")
)

// Repository defines the storage operations used by the workflow.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Request, error)
	FindByToken(ctx context.Context, token string) (Request, error)
	MarkSigned(ctx context.Context, token string, name, email *string) (MarkResult, error)
}

// OutboxWriter enqueues a message inside the caller's transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool   *pgxpool.Pool
	outbox OutboxWriter
}

// NewRepository creates a PostgreSQL-backed sign-off repository. A nil outbox
// skips message enqueueing.
func NewRepository(pool *pgxpool.Pool, outbox OutboxWriter) *PGRepository {
	return &PGRepository{pool: pool, outbox: outbox}
}

const requestColumns = `id::text, token, loan_id::text, channel, status, guarantor_name, guarantor_email, signed_at, created_at`

// Create inserts a pending request and enqueues the invitation message.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Request, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("signoff: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL := `
		INSERT INTO signoff_requests (token, loan_id, channel, guarantor_name, guarantor_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + requestColumns

	req, err := scanRequest(tx.QueryRow(ctx, insertSQL,
		params.Token,
		params.LoanID,
		params.Channel,
		params.GuarantorName,
		params.GuarantorEmail,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Request{}, ErrDuplicateToken
		}
		return Request{}, fmt.Errorf("signoff: create request: %w", err)
	}

	if r.outbox != nil {
		payload := map[string]any{
			"request_id": req.ID,
			"token":      req.Token,
			"loan_id":    req.LoanID,
			"channel":    req.Channel,
		}
		if req.GuarantorName != nil {
			payload["guarantor_name"] = *req.GuarantorName
		}
		if req.GuarantorEmail != nil {
			payload["guarantor_email"] = *req.GuarantorEmail
		}
		if err := r.outbox.Enqueue(ctx, tx, OutboxTopicRequested, payload); err != nil {
			return Request{}, fmt.Errorf("signoff: enqueue outbox: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("signoff: commit create: %w", err)
	}
	return req, nil
}

// FindByToken looks a request up by exact token match.
func (r *PGRepository) FindByToken(ctx context.Context, token string) (Request, error) {
	selectSQL := `SELECT ` + requestColumns + ` FROM signoff_requests WHERE token = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, selectSQL, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("signoff: find by token: %w", err)
	}
	return req, nil
}

// MarkSigned locks the row, and when it is still pending flips it to signed.
// Nil name or email keeps the stored value. A row that is already signed is
// returned untouched with Transitioned=false, so concurrent callers serialise on
// the row lock and exactly one of them performs the transition.
func (r *PGRepository) MarkSigned(ctx context.Context, token string, name, email *string) (MarkResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return MarkResult{}, fmt.Errorf("signoff: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	lockSQL := `SELECT ` + requestColumns + ` FROM signoff_requests WHERE token = $1 FOR UPDATE`
	current, err := scanRequest(tx.QueryRow(ctx, lockSQL, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarkResult{}, ErrNotFound
		}
		return MarkResult{}, fmt.Errorf("signoff: lock request: %w", err)
	}
	if current.Signed() {
		return MarkResult{Request: current}, nil
	}

	updateSQL := `
		UPDATE signoff_requests
		SET status = 'signed',
		    guarantor_name = COALESCE($2, guarantor_name),
		    guarantor_email = COALESCE($3, guarantor_email),
		    signed_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns

	updated, err := scanRequest(tx.QueryRow(ctx, updateSQL, current.ID, name, email))
	if err != nil {
		return MarkResult{}, fmt.Errorf("signoff: mark signed: %w", err)
	}

	if r.outbox != nil {
		payload := map[string]any{
			"request_id": updated.ID,
			"loan_id":    updated.LoanID,
			"signed_at":  updated.SignedAt,
		}
		if updated.GuarantorName != nil {
			payload["guarantor_name"] = *updated.GuarantorName
		}
		if err := r.outbox.Enqueue(ctx, tx, OutboxTopicSigned, payload); err != nil {
			return MarkResult{}, fmt.Errorf("signoff: enqueue outbox: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return MarkResult{}, fmt.Errorf("signoff: commit mark signed: %w", err)
	}
	return MarkResult{Request: updated, Transitioned: true}, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID,
		&req.Token,
		&req.LoanID,
		&req.Channel,
		&req.Status,
		&req.GuarantorName,
		&req.GuarantorEmail,
		&req.SignedAt,
		&req.CreatedAt,
	)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}
