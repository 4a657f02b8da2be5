package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
)

const recentNotifications = 5

type LoanLister interface {
	ListForMember(ctx context.Context, memberID string) ([]loan.Loan, error)
}

type AccountLister interface {
	Accounts(ctx context.Context, memberID string) ([]savings.Account, error)
}

type NotificationReader interface {
	List(ctx context.Context, memberID string, limit int) ([]notification.Notification, error)
	UnreadCount(ctx context.Context, memberID string) (int, error)
}

// Summary is the member's landing page snapshot.
type Summary struct {
	ActiveLoans          int
	OutstandingPrincipal decimal.Decimal
	TotalSavings         decimal.Decimal
	Accounts             []savings.Account
	Loans                []loan.Loan
	UnreadCount          int
	Recent               []notification.Notification
}

type Service struct {
	loans         LoanLister
	accounts      AccountLister
	notifications NotificationReader
}

func NewService(loans LoanLister, accounts AccountLister, notifications NotificationReader) *Service {
	return &Service{loans: loans, accounts: accounts, notifications: notifications}
}

// Summary fetches the four sources concurrently. The first error cancels the rest.
func (s *Service) Summary(ctx context.Context, memberID string) (Summary, error) {
	var (
		loans    []loan.Loan
		accounts []savings.Account
		recent   []notification.Notification
		unread   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if loans, err = s.loans.ListForMember(gctx, memberID); err != nil {
			return fmt.Errorf("dashboard: loans: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if accounts, err = s.accounts.Accounts(gctx, memberID); err != nil {
			return fmt.Errorf("dashboard: savings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if unread, err = s.notifications.UnreadCount(gctx, memberID); err != nil {
			return fmt.Errorf("dashboard: unread count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recent, err = s.notifications.List(gctx, memberID, recentNotifications); err != nil {
			return fmt.Errorf("dashboard: notifications: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := Summary{
		OutstandingPrincipal: decimal.Zero,
		TotalSavings:         savings.TotalBalance(accounts),
		Accounts:             accounts,
		Loans:                loans,
		UnreadCount:          unread,
		Recent:               recent,
	}
	for _, l := range loans {
		if l.Status == loan.StatusActive {
			sum.ActiveLoans++
			sum.OutstandingPrincipal = sum.OutstandingPrincipal.Add(l.Principal)
		}
	}
	return sum, nil
}
