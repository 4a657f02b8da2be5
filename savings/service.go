package savings

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	defaultTxLimit = 50
	maxTxLimit     = 100
)

// Reader abstracts repository operations for the service.
type Reader interface {
	ListAccounts(ctx context.Context, memberID string) ([]Account, error)
	GetAccount(ctx context.Context, memberID, accountID string) (Account, error)
	ListTransactions(ctx context.Context, accountID string, limit int) ([]Transaction, error)
}

// Service exposes member savings operations.
type Service struct {
	repo Reader
}

func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// Detail is an account with its recent ledger.
type Detail struct {
	Account      Account
	Transactions []Transaction
	Deposits     decimal.Decimal
	Withdrawals  decimal.Decimal
}

func (s *Service) Accounts(ctx context.Context, memberID string) ([]Account, error) {
	return s.repo.ListAccounts(ctx, memberID)
}

// Account returns ErrNotFound unless the account belongs to memberID.
func (s *Service) Account(ctx context.Context, memberID, accountID string) (Account, error) {
	return s.repo.GetAccount(ctx, memberID, accountID)
}

// Transactions returns the newest entries first. The limit is clamped to
// 1..100 and defaults to 50.
func (s *Service) Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultTxLimit
	}
	if limit > maxTxLimit {
		limit = maxTxLimit
	}
	return s.repo.ListTransactions(ctx, accountID, limit)
}

// Detail loads an owned account with its recent ledger and period totals.
func (s *Service) Detail(ctx context.Context, memberID, accountID string, limit int) (Detail, error) {
	acct, err := s.Account(ctx, memberID, accountID)
	if err != nil {
		return Detail{}, err
	}
	txs, err := s.Transactions(ctx, acct.ID, limit)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Account: acct, Transactions: txs, Deposits: decimal.Zero, Withdrawals: decimal.Zero}
	for _, tx := range txs {
		if tx.Kind.Credit() {
			d.Deposits = d.Deposits.Add(tx.Amount)
		} else {
			d.Withdrawals = d.Withdrawals.Add(tx.Amount)
		}
	}
	return d, nil
}

// TotalBalance sums account balances.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
