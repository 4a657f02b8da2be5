package savings

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxKind is the type of a savings ledger entry.
type TxKind string

const (
	TxDeposit    TxKind = "deposit"
	TxWithdrawal TxKind = "withdrawal"
	TxInterest   TxKind = "interest"
)

// Credit reports whether the entry adds to the balance.
func (k TxKind) Credit() bool {
	return k != TxWithdrawal
}

// Account mirrors the savings_accounts table.
type Account struct {
	ID        string
	MemberID  string
	AccountNo string
	Kind      string
	Balance   decimal.Decimal
	Status    string
	OpenedAt  time.Time
}

// Transaction mirrors the savings_transactions table.
type Transaction struct {
	ID           string
	AccountID    string
	Kind         TxKind
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Reference    string
	PostedAt     time.Time
}
