package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
	"github.com/adedoyinyusuf/CSIMS-sub005/test/infra"
)

// TestSummary_Integration reads loans, savings and notifications back through
// their repositories from a seeded database.
func TestSummary_Integration(t *testing.T) {
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

	seed := func(query string, args ...any) string {
		t.Helper()
		var id string
		if err := pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			t.Fatalf("seed %q: %v", query, err)
		}
		return id
	}
	stamp := time.Now().UnixNano()
	memberID := seed(`INSERT INTO members (member_no, full_name, email, password_hash)
		VALUES ($1, 'Ada Obi', $2, 'x') RETURNING id::text`, fmt.Sprintf("CS-%d", stamp%1e8), fmt.Sprintf("ada+%d@example.com", stamp))
	otherID := seed(`INSERT INTO members (member_no, full_name, email, password_hash)
		VALUES ($1, 'Bola Ade', $2, 'x') RETURNING id::text`, fmt.Sprintf("CX-%d", stamp%1e8), fmt.Sprintf("bola+%d@example.com", stamp))

	activeLoan := seed(`INSERT INTO loans (member_id, principal, annual_rate, term_months, status)
		VALUES ($1, 120000, 12, 12, 'active') RETURNING id::text`, memberID)
	seed(`INSERT INTO loans (member_id, principal, annual_rate, term_months, status)
		VALUES ($1, 50000, 10, 6, 'pending') RETURNING id::text`, memberID)
	accountID := seed(`INSERT INTO savings_accounts (member_id, account_no, balance)
		VALUES ($1, $2, 1500.50) RETURNING id::text`, memberID, fmt.Sprintf("SV-%d", stamp))
	seed(`INSERT INTO savings_transactions (account_id, kind, amount, balance_after, reference)
		VALUES ($1, 'deposit', 1500.50, 1500.50, 'opening') RETURNING id::text`, accountID)

	loanRepo := loan.NewRepository(pool)
	savingsService := savings.NewService(savings.NewRepository(pool))
	noteRepo := notification.NewRepository(pool)
	noteService := notification.NewService(noteRepo)

	note, err := noteRepo.CreateForLoanOwner(ctx, activeLoan, "Guarantor confirmed", "Bola has signed off.", "loan")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if note.MemberID != memberID {
		t.Fatalf("notification went to %s, want loan owner %s", note.MemberID, memberID)
	}

	sum, err := NewService(loan.NewService(loanRepo, nil), savingsService, noteService).Summary(ctx, memberID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ActiveLoans != 1 || !sum.OutstandingPrincipal.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("unexpected loan totals %+v", sum)
	}
	if !sum.TotalSavings.Equal(decimal.RequireFromString("1500.50")) {
		t.Fatalf("unexpected savings total %s", sum.TotalSavings)
	}
	if sum.UnreadCount != 1 || len(sum.Recent) != 1 {
		t.Fatalf("unexpected notifications %+v", sum)
	}

	if _, err := savingsService.Detail(ctx, otherID, accountID, 10); !errors.Is(err, savings.ErrNotFound) {
		t.Fatalf("foreign account must be hidden, got %v", err)
	}
	if err := noteService.MarkRead(ctx, otherID, note.ID); !errors.Is(err, notification.ErrNotFound) {
		t.Fatalf("foreign notification must be hidden, got %v", err)
	}
	// malformed ids from the URL are plain misses, never database errors
	if _, err := savingsService.Detail(ctx, memberID, "not-a-uuid", 10); !errors.Is(err, savings.ErrNotFound) {
		t.Fatalf("malformed account id: expected not found, got %v", err)
	}
	if err := noteService.MarkRead(ctx, memberID, "42"); !errors.Is(err, notification.ErrNotFound) {
		t.Fatalf("malformed notification id: expected not found, got %v", err)
	}
	if _, err := loanRepo.GetForMember(ctx, memberID, "abc"); !errors.Is(err, loan.ErrNotFound) {
		t.Fatalf("malformed loan id: expected not found, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := noteService.MarkRead(ctx, memberID, note.ID); err != nil {
			t.Fatalf("mark read #%d: %v", i+1, err)
		}
	}
	if n, err := noteService.UnreadCount(ctx, memberID); err != nil || n != 0 {
		t.Fatalf("expected no unread, got %d (%v)", n, err)
	}
}
