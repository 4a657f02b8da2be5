package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/adedoyinyusuf/CSIMS-sub005/outbox"
	"github.com/adedoyinyusuf/CSIMS-sub005/test/infra"
)

func TestAccountLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pg, err := infra.Start(ctx, dsn)
	if err != nil {
		t.Fatalf("start database: %v", err)
	}
	defer pg.Close(context.Background())
	pool := pg.Pool()

	svc := NewService(NewRepository(pool, outbox.NewWriter()), strings.Repeat("s", 32), time.Hour, time.Hour)

	email := fmt.Sprintf("ada+%d@example.com", time.Now().UnixNano())
	member, err := svc.Register(ctx, RegisterRequest{
		FullName: "Ada Obi", Email: email, Password: "password123", ConfirmPassword: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.Register(ctx, RegisterRequest{
		FullName: "Ada Again", Email: strings.ToUpper(email), Password: "password123", ConfirmPassword: "password123",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, email); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	var token string
	if err := pool.QueryRow(ctx, `SELECT payload->>'token' FROM outbox
		WHERE topic = $1 AND payload->>'member_id' = $2`, OutboxTopicPasswordReset, member.ID).Scan(&token); err != nil {
		t.Fatalf("read reset message: %v", err)
	}

	reset := ResetRequest{Token: token, Password: "newpassword1", ConfirmPassword: "newpassword1"}
	if err := svc.ResetPassword(ctx, reset); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if err := svc.ResetPassword(ctx, reset); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected single-use token, got %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: email, Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: email, Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
