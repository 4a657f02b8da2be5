package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrMemberNotFound signals that the member does not exist.
	ErrMemberNotFound = errors.New("auth: member not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
	// ErrResetTokenInvalid covers unknown, expired and already used reset tokens.
	ErrResetTokenInvalid = errors.New("auth: reset token invalid or expired")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateMember(ctx context.Context, params CreateMemberParams) (Member, error)
	GetMemberByEmail(ctx context.Context, email string) (Member, error)
	GetMemberByID(ctx context.Context, memberID string) (Member, error)
	CreatePasswordReset(ctx context.Context, params PasswordResetParams) error
	ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
}

// OutboxWriter enqueues a message inside the caller's transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// CreateMemberParams contains write parameters for creating members.
type CreateMemberParams struct {
	MemberNo     string
	FullName     string
	Email        string
	Phone        *string
	PasswordHash string
	Role         Role
}

// PasswordResetParams describes a reset token to store. Token is the raw value
// handed to the mailer; only TokenHash is persisted on the reset row.
type PasswordResetParams struct {
	Member    Member
	Token     string
	TokenHash string
	ExpiresAt time.Time
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool   *pgxpool.Pool
	outbox OutboxWriter
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool, outbox OutboxWriter) *PGRepository {
	return &PGRepository{pool: pool, outbox: outbox}
}

const memberColumns = `id::text, member_no, full_name, email, phone, password_hash, role, created_at, updated_at`

// CreateMember inserts a new member with hashed password.
func (r *PGRepository) CreateMember(ctx context.Context, params CreateMemberParams) (Member, error) {
	insertSQL := `
		INSERT INTO members (member_no, full_name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + memberColumns

	member, err := scanMember(r.pool.QueryRow(ctx, insertSQL,
		params.MemberNo, params.FullName, params.Email, params.Phone, params.PasswordHash, params.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Member{}, ErrDuplicateEmail
		}
		return Member{}, fmt.Errorf("auth: create member: %w", err)
	}

	return member, nil
}

// GetMemberByEmail retrieves a member by email address, case-insensitively.
func (r *PGRepository) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	selectSQL := `SELECT ` + memberColumns + ` FROM members WHERE lower(email) = lower($1)`

	member, err := scanMember(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrMemberNotFound
		}
		return Member{}, fmt.Errorf("auth: get member by email: %w", err)
	}

	return member, nil
}

// GetMemberByID retrieves a member by ID.
func (r *PGRepository) GetMemberByID(ctx context.Context, memberID string) (Member, error) {
	selectSQL := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	member, err := scanMember(r.pool.QueryRow(ctx, selectSQL, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrMemberNotFound
		}
		return Member{}, fmt.Errorf("auth: get member by id: %w", err)
	}

	return member, nil
}

// CreatePasswordReset stores the token hash and queues the reset email in one transaction.
func (r *PGRepository) CreatePasswordReset(ctx context.Context, params PasswordResetParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO password_resets (token_hash, member_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertSQL, params.TokenHash, params.Member.ID, params.ExpiresAt); err != nil {
		return fmt.Errorf("auth: insert password reset: %w", err)
	}

	if r.outbox != nil {
		payload := map[string]any{
			"member_id":  params.Member.ID,
			"email":      params.Member.Email,
			"full_name":  params.Member.FullName,
			"token":      params.Token,
			"expires_at": params.ExpiresAt.UTC(),
		}
		if err := r.outbox.Enqueue(ctx, tx, OutboxTopicPasswordReset, payload); err != nil {
			return fmt.Errorf("auth: enqueue reset mail: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("auth: commit password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset swaps the member's password hash and burns the token.
func (r *PGRepository) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		memberID   string
		expiresAt  time.Time
		consumedAt *time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT member_id::text, expires_at, consumed_at
		FROM password_resets
		WHERE token_hash = $1
		FOR UPDATE
	`, tokenHash).Scan(&memberID, &expiresAt, &consumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("auth: lock password reset: %w", err)
	}
	if consumedAt != nil || !now.Before(expiresAt) {
		return ErrResetTokenInvalid
	}

	if _, err := tx.Exec(ctx, `UPDATE members SET password_hash = $2, updated_at = now() WHERE id = $1`, memberID, passwordHash); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE password_resets SET consumed_at = $2 WHERE token_hash = $1`, tokenHash, now); err != nil {
		return fmt.Errorf("auth: consume password reset: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("auth: commit password reset: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (Member, error) {
	var member Member
	err := row.Scan(
		&member.ID,
		&member.MemberNo,
		&member.FullName,
		&member.Email,
		&member.Phone,
		&member.PasswordHash,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return Member{}, err
	}
	return member, nil
}
