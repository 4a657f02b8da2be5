package auth

import "time"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Member is the domain representation of a registered member.
// It mirrors the members table and carries no presentation tags.
type Member struct {
	ID           string
	MemberNo     string
	FullName     string
	Email        string
	Phone        *string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity carried by a verified session token.
type Principal struct {
	MemberID string
	Role     Role
}

// RegisterRequest contains registration form data supplied by callers.
type RegisterRequest struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// LoginRequest contains member login credentials.
type LoginRequest struct {
	Email    string
	Password string
}

// ResetRequest is the reset-password form.
type ResetRequest struct {
	Token           string
	Password        string
	ConfirmPassword string
}

const (
	// OutboxTopicPasswordReset carries the reset link to the mailer.
	OutboxTopicPasswordReset = "member.password_reset"
)
