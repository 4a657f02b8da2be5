package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a loan application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Label is the display form of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusRejected:
		return "Rejected"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Loan mirrors the loans table.
type Loan struct {
	ID         string
	MemberID   string
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal
	TermMonths int
	Purpose    string
	Status     Status
	AppliedAt  time.Time
}

// MonthlyPayment is the fixed installment for the loan.
func (l Loan) MonthlyPayment() decimal.Decimal {
	return MonthlyPayment(l.Principal, l.AnnualRate, l.TermMonths)
}

// TotalPayable is the sum of all installments.
func (l Loan) TotalPayable() decimal.Decimal {
	return l.MonthlyPayment().Mul(decimal.NewFromInt(int64(l.TermMonths)))
}

// TotalInterest is what the member pays on top of the principal.
func (l Loan) TotalInterest() decimal.Decimal {
	return l.TotalPayable().Sub(l.Principal)
}
