package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrPasswordMismatch signals the confirmation differs from the password.
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	// ErrMissingFields signals a required registration field is blank.
	ErrMissingFields = errors.New("auth: full name and email are required")
	// ErrInvalidEmail signals a malformed email address.
	ErrInvalidEmail = errors.New("auth: invalid email address")
	// ErrInvalidToken signals a session token that fails verification.
	ErrInvalidToken = errors.New("auth: invalid session token")
)

const minPasswordLength = 8

// Service handles authentication business logic.
type Service struct {
	repo       Repository
	jwtSecret  []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// LoginResult bundles the token and domain member returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Member    Member
}

type sessionClaims struct {
	MemberID string `json:"member_id"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string, sessionTTL, resetTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Service{
		repo:       repo,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new member account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Member, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := checkPassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	var phone *string
	if p := strings.TrimSpace(req.Phone); p != "" {
		phone = &p
	}

	member, err := s.repo.CreateMember(ctx, CreateMemberParams{
		MemberNo:     newMemberNo(),
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(passwordHash),
		Role:         RoleMember,
	})
	if err != nil {
		return nil, err
	}

	return &member, nil
}

// Login authenticates a member and returns a signed session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	member, err := s.repo.GetMemberByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(member.ID, member.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Member:    member,
	}, nil
}

// GetMemberByID retrieves member information by ID.
func (s *Service) GetMemberByID(ctx context.Context, memberID string) (*Member, error) {
	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// VerifyToken validates a session token and returns its principal.
func (s *Service) VerifyToken(tokenString string) (Principal, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.MemberID == "" {
		return Principal{}, ErrInvalidToken
	}
	if !isValidRole(claims.Role) {
		return Principal{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	return Principal{MemberID: claims.MemberID, Role: claims.Role}, nil
}

// RequestPasswordReset queues a reset email. Unknown addresses succeed silently so
// the form does not reveal which emails are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingFields
	}
	member, err := s.repo.GetMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil
		}
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	return s.repo.CreatePasswordReset(ctx, PasswordResetParams{
		Member:    member,
		Token:     token,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(s.resetTTL),
	})
}

// ResetPassword sets a new password using a single-use reset token.
func (s *Service) ResetPassword(ctx context.Context, req ResetRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	if err := checkPassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.ConsumePasswordReset(ctx, hashToken(token), string(passwordHash), s.now())
}

// SessionTTL reports how long issued session tokens stay valid.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// generateToken creates a session token for the member.
func (s *Service) generateToken(memberID string, role Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	claims := sessionClaims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func checkPassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func newMemberNo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CS-" + strings.ToUpper(id[:8])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func isValidRole(role Role) bool {
	switch role {
	case RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}
